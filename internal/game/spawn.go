package game

import "rollaway/server/internal/mathx"

// Initial runway population counts, matched by the smaller extension batches
// used once the run is underway.
const (
	initialObstacles    = 20
	initialCollectibles = 10
	initialTrees        = 30
	initialGrass        = 50

	extendObstacles    = 5
	extendCollectibles = 3
	extendTrees        = 5
	extendGrass        = 10

	obstacleSpacing    = 15.0
	collectibleSpacing = 10.0
	treeSpacing        = 20.0
	grassSpacing       = 8.0

	obstacleLead    = 100.0
	collectibleLead = 80.0
	treeLead        = 150.0
	grassLead       = 100.0
)

// extendRunway spawns new content whenever the furthest-spawned instance of a
// collection falls within the lead distance of the ball. Callers hold the mutex.
func (g *Game) extendRunway() {
	ballZ := g.ball.Position.Z()

	//1.- Each collection keeps a fixed lead of content down the runway.
	if len(g.obstacles) == 0 || g.obstacles[len(g.obstacles)-1].Position.Z() > ballZ-obstacleLead {
		g.spawnObstacles(extendObstacles)
	}
	if len(g.collectibles) == 0 || g.collectibles[len(g.collectibles)-1].Position.Z() > ballZ-collectibleLead {
		g.spawnCollectibles(extendCollectibles)
	}
	if len(g.trees) == 0 || g.trees[len(g.trees)-1].Position.Z() > ballZ-treeLead {
		g.spawnTrees(extendTrees)
	}
	if len(g.grass) == 0 || g.grass[len(g.grass)-1].Position.Z() > ballZ-grassLead {
		g.spawnGrass(extendGrass)
	}
}

// frontier returns the z coordinate spawning should continue from, stepping
// down the runway from the last spawned instance.
func frontier(lastZ, firstZ, spacing float64, empty bool) float64 {
	if empty {
		return firstZ
	}
	return lastZ - spacing
}

func (g *Game) spawnObstacles(count int) {
	z := frontier(g.lastObstacleZ(), -30, obstacleSpacing, len(g.obstacles) == 0)
	for i := 0; i < count; i++ {
		obstacle := Obstacle{
			Kind:   ObstacleKind(g.rng.Intn(3)),
			Active: true,
			Width:  0.5 + g.rng.Float64(),
			Height: 0.5 + g.rng.Float64()*2,
			Depth:  0.5 + g.rng.Float64(),
			Damage: 10 + g.rng.Float64()*10,
			Color:  mathx.Vec3{0.9, 0.3 + g.rng.Float64()*0.2, 0.1 + g.rng.Float64()*0.1},
		}
		//1.- Place the obstacle inside the road band at the next rung.
		obstacle.Position = mathx.Vec3{(g.rng.Float64() - 0.5) * 3, 0, z}
		g.obstacles = append(g.obstacles, obstacle)
		z -= obstacleSpacing
	}
}

func (g *Game) spawnCollectibles(count int) {
	z := frontier(g.lastCollectibleZ(), -20, collectibleSpacing, len(g.collectibles) == 0)
	for i := 0; i < count; i++ {
		g.collectibles = append(g.collectibles, Collectible{Position: mathx.Vec3{
			(g.rng.Float64() - 0.5) * 6,
			1 + g.rng.Float64()*2,
			z,
		}})
		z -= collectibleSpacing
	}
}

func (g *Game) spawnTrees(count int) {
	halfWidth := float64(g.terrain.Params().Width / 2)
	z := frontier(g.lastTreeZ(), -20, treeSpacing, len(g.trees) == 0)
	for i := 0; i < count; i++ {
		side := 1.0
		if g.rng.Float64() <= 0.5 {
			side = -1.0
		}
		x := (halfWidth + 2 + g.rng.Float64()*10) * side
		tree := Tree{
			Height:        2 + g.rng.Float64()*4,
			TrunkRadius:   0.1 + g.rng.Float64()*0.2,
			FoliageRadius: 0.8 + g.rng.Float64()*1.2,
			TrunkColor:    mathx.Vec3{0.4, 0.2, 0.1},
			FoliageColor:  mathx.Vec3{g.rng.Float64() * 0.2, 0.4 + g.rng.Float64()*0.4, g.rng.Float64() * 0.2},
		}
		//1.- Seat the tree on the terrain surface beside the road.
		tree.Position = mathx.Vec3{x, g.terrain.Height(x, z), z}
		g.trees = append(g.trees, tree)
		z -= treeSpacing
	}
}

func (g *Game) spawnGrass(count int) {
	halfWidth := float64(g.terrain.Params().Width / 2)
	z := frontier(g.lastGrassZ(), -10, grassSpacing, len(g.grass) == 0)
	for i := 0; i < count; i++ {
		side := 1.0
		if g.rng.Float64() <= 0.5 {
			side = -1.0
		}
		x := (halfWidth + 1 + g.rng.Float64()*8) * side
		//1.- Float the tuft slightly above the surface so it never z-fights.
		g.grass = append(g.grass, GrassPatch{Position: mathx.Vec3{x, g.terrain.Height(x, z) + 0.1, z}})
		z -= grassSpacing
	}
}

func (g *Game) lastObstacleZ() float64 {
	if len(g.obstacles) == 0 {
		return 0
	}
	return g.obstacles[len(g.obstacles)-1].Position.Z()
}

func (g *Game) lastCollectibleZ() float64 {
	if len(g.collectibles) == 0 {
		return 0
	}
	return g.collectibles[len(g.collectibles)-1].Position.Z()
}

func (g *Game) lastTreeZ() float64 {
	if len(g.trees) == 0 {
		return 0
	}
	return g.trees[len(g.trees)-1].Position.Z()
}

func (g *Game) lastGrassZ() float64 {
	if len(g.grass) == 0 {
		return 0
	}
	return g.grass[len(g.grass)-1].Position.Z()
}
