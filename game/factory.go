package game

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/systems"
)

// goldenAngle spaces plants so that no two rings line up.
const goldenAngle = 2.399963229728653

// Area bundles one built foraging area: the scene hierarchy, the flower
// field registered over it, and the collider registry.
type Area struct {
	Root      *systems.Node
	Field     *systems.FlowerField
	Colliders *systems.ColliderSet
}

// BuildArea constructs a foraging area centered at origin. Plants are laid
// out in a sunflower spiral inside the field boundary, each carrying a fan
// of flowers around the stem top. Nectar region IDs are issued sequentially
// in build order, so they are stable for a given configuration.
func BuildArea(cfg *config.Config, origin r3.Vec, rng *rand.Rand) *Area {
	fc := &cfg.Field

	root := systems.NewNode("area", "", origin)
	field := systems.NewFlowerField(origin)

	colliders := systems.NewColliderSet()
	colliders.SetGround(origin.Y)
	colliders.SetBoundary(origin, cfg.Derived.FieldRadius, origin.Y+fc.Height)

	// Keep whole plants, flowers included, inside the boundary.
	margin := fc.StemRadius + fc.BodyRadius*3
	maxRadius := cfg.Derived.FieldRadius - margin

	nextRegion := systems.RegionID(0)
	for i := 0; i < fc.PlantCount; i++ {
		angle := float64(i) * goldenAngle
		radius := maxRadius * math.Sqrt((float64(i)+0.5)/float64(fc.PlantCount))
		plantPos := r3.Add(origin, r3.Vec{
			X: radius * math.Sin(angle),
			Z: radius * math.Cos(angle),
		})

		plant := systems.NewNode(fmt.Sprintf("plant_%02d", i), systems.TagFlowerPlant, plantPos)

		// Stem approximated by a stack of sphere colliders. Plants tilt
		// only a few degrees at reset, so the stack stays axis-aligned.
		for h := fc.StemRadius; h < fc.StemHeight; h += fc.StemRadius * 2 {
			colliders.AddSphere(r3.Add(plantPos, r3.Scale(h, systems.AxisY)), fc.StemRadius)
		}

		for j := 0; j < fc.FlowersPerPlant; j++ {
			fa := (float64(j) + 0.5) / float64(fc.FlowersPerPlant) * 2 * math.Pi
			out := r3.Vec{X: math.Sin(fa), Z: math.Cos(fa)}

			// Flower body hangs off the stem top, facing up and outward;
			// the nectar region sits on the body's upward face.
			localBody := r3.Add(
				r3.Scale(fc.StemHeight, systems.AxisY),
				r3.Scale(fc.BodyRadius*2, out),
			)
			localUp := r3.Unit(r3.Add(systems.AxisY, r3.Scale(0.35, out)))
			localNectar := r3.Add(localBody, r3.Scale(fc.BodyRadius, localUp))

			f := systems.NewFlower(plant, nextRegion, localBody, localNectar, localUp, fc.BodyRadius, fc.NectarRadius)
			nextRegion++

			node := systems.NewNode(fmt.Sprintf("flower_%02d_%02d", i, j), "", r3.Vec{})
			node.Flower = f
			plant.Children = append(plant.Children, node)
			colliders.AddFlower(f)
		}

		root.Children = append(root.Children, plant)
	}

	field.Build(root)
	field.ResetAll(rng, fc.PlantTiltMax)

	return &Area{Root: root, Field: field, Colliders: colliders}
}
