package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"rollaway/server/tools/replayinspect"
)

func main() {
	dir := flag.String("dir", ".", "directory containing replay bundles, or a single bundle")
	jsonFlag := flag.Bool("json", false, "emit JSON instead of human-readable output")
	dump := flag.Bool("dump", false, "print the full timeline of a single bundle as JSON")
	flag.Parse()

	if *dump {
		//1.- A full dump targets one bundle and always renders JSON for piping.
		entries, err := replayinspect.Timeline(*dir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintln(os.Stderr, "encode error:", err)
			os.Exit(1)
		}
		return
	}

	catalog, err := replayinspect.Catalog(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *jsonFlag {
		payload, err := replayinspect.MarshalCatalog(catalog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
		return
	}

	for _, entry := range catalog {
		summary, err := replayinspect.Summarise(entry.BundleDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", entry.BundleDir, err)
			continue
		}
		fmt.Printf("%s (schema %d)\n", entry.BundleDir, entry.Header.SchemaVersion)
		fmt.Printf("  seed: %s\n", entry.Header.RunSeed)
		fmt.Printf("  frames: %d  events: %d  duration: %dms\n",
			summary.FrameCount, summary.EventCount, summary.DurationMs)
		if len(entry.Header.TerrainParams) > 0 {
			keys := make([]string, 0, len(entry.Header.TerrainParams))
			for key := range entry.Header.TerrainParams {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			fmt.Printf("  terrain:\n")
			for _, key := range keys {
				fmt.Printf("    %s: %.3f\n", key, entry.Header.TerrainParams[key])
			}
		}
	}
}
