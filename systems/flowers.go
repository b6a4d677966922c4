package systems

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// TagFlowerPlant marks a node as a plant container: the field registers it
// and recurses into it, and ResetAll re-orients it as a unit.
const TagFlowerPlant = "flower_plant"

// RegionID identifies a flower's nectar trigger region. Contact events from
// the host carry a RegionID; only IDs issued to registered flowers are valid.
type RegionID int

// MaterialState is the visual state of a flower body.
type MaterialState uint8

const (
	MaterialFull MaterialState = iota
	MaterialEmpty
)

func (m MaterialState) String() string {
	if m == MaterialFull {
		return "full"
	}
	return "empty"
}

// Node is a host scene object. Plants re-orient as a unit at episode reset,
// so flower world frames are always derived through the owning plant node.
type Node struct {
	Name     string
	Tag      string
	Pos      r3.Vec
	Rot      quat.Number
	Children []*Node
	Flower   *Flower
}

// NewNode creates a node with identity orientation.
func NewNode(name, tag string, pos r3.Vec) *Node {
	return &Node{Name: name, Tag: tag, Pos: pos, Rot: QuatIdentity()}
}

// Flower is a single nectar source. Nectar is depleted through Feed and
// restored only by Reset; an empty flower deactivates its body collider and
// nectar region until the next reset.
type Flower struct {
	plant        *Node  // orientation source for all world-frame accessors
	localBody    r3.Vec // body center in the plant frame
	localNectar  r3.Vec // nectar region center in the plant frame
	localUp      r3.Vec // nectar up-axis in the plant frame
	bodyRadius   float64
	nectarRadius float64
	region       RegionID

	nectar   float64
	active   bool
	material MaterialState
}

// NewFlower creates a full flower owned by plant. The local offsets are
// fixed at creation; world-frame positions follow the plant's orientation.
func NewFlower(plant *Node, region RegionID, localBody, localNectar, localUp r3.Vec, bodyRadius, nectarRadius float64) *Flower {
	return &Flower{
		plant:        plant,
		localBody:    localBody,
		localNectar:  localNectar,
		localUp:      r3.Unit(localUp),
		bodyRadius:   bodyRadius,
		nectarRadius: nectarRadius,
		region:       region,
		nectar:       1,
		active:       true,
		material:     MaterialFull,
	}
}

// NectarRemaining returns the remaining nectar in [0, 1].
func (f *Flower) NectarRemaining() float64 { return f.nectar }

// HasNectar reports whether any nectar remains.
func (f *Flower) HasNectar() bool { return f.nectar > 0 }

// Active reports whether the body collider and nectar region are interactive.
func (f *Flower) Active() bool { return f.active }

// Material returns the current visual state.
func (f *Flower) Material() MaterialState { return f.material }

// Region returns the flower's nectar region identity.
func (f *Flower) Region() RegionID { return f.region }

// NectarRadius returns the nectar trigger region radius.
func (f *Flower) NectarRadius() float64 { return f.nectarRadius }

// BodyRadius returns the body collider radius.
func (f *Flower) BodyRadius() float64 { return f.bodyRadius }

// BodyCenter returns the live world position of the flower body.
func (f *Flower) BodyCenter() r3.Vec {
	return r3.Add(f.plant.Pos, Rotate(f.plant.Rot, f.localBody))
}

// NectarCenter returns the live world position of the nectar region.
func (f *Flower) NectarCenter() r3.Vec {
	return r3.Add(f.plant.Pos, Rotate(f.plant.Rot, f.localNectar))
}

// NectarUp returns the live world-space up-axis of the nectar region.
func (f *Flower) NectarUp() r3.Vec {
	return Rotate(f.plant.Rot, f.localUp)
}

// feedEpsilon snaps accumulated float error to empty, so a flower drains
// in exactly nectar/amount feeds.
const feedEpsilon = 1e-9

// Feed removes up to amount of nectar and returns the amount actually
// removed. Amounts are clamped to [0, remaining]. When the flower empties
// it deactivates and switches to the empty material.
func (f *Flower) Feed(amount float64) float64 {
	taken := amount
	if taken < 0 {
		taken = 0
	}
	if taken > f.nectar {
		taken = f.nectar
	}
	f.nectar -= taken
	if f.nectar <= feedEpsilon {
		f.nectar = 0
		f.active = false
		f.material = MaterialEmpty
	}
	return taken
}

// Reset refills the flower and reactivates it. Idempotent.
func (f *Flower) Reset() {
	f.nectar = 1
	f.active = true
	f.material = MaterialFull
}

// ClosestNectarPoint returns the point on the nectar region surface closest
// to p, or p itself when p is inside the region.
func (f *Flower) ClosestNectarPoint(p r3.Vec) r3.Vec {
	center := f.NectarCenter()
	d := r3.Sub(p, center)
	dist := r3.Norm(d)
	if dist <= f.nectarRadius {
		return p
	}
	return r3.Add(center, r3.Scale(f.nectarRadius/dist, d))
}

// FlowerField owns every flower in an area. It is built once from the host
// node hierarchy; the flower collection order is discovery order and is the
// tie-break order for target selection.
type FlowerField struct {
	origin   r3.Vec
	flowers  []*Flower
	plants   []*Node
	byRegion map[RegionID]*Flower
}

// NewFlowerField creates an empty field centered at origin.
func NewFlowerField(origin r3.Vec) *FlowerField {
	return &FlowerField{
		origin:   origin,
		byRegion: make(map[RegionID]*Flower),
	}
}

// Build registers plants and flowers by walking the hierarchy under root
// depth-first in sibling order. Plant containers are registered and
// recursed into; a node carrying a flower is registered and terminates its
// branch; any other node is recursed into.
func (ff *FlowerField) Build(root *Node) {
	// Explicit worklist, children pushed in reverse so pop order matches
	// sibling order.
	stack := make([]*Node, 0, len(root.Children))
	push := func(children []*Node) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	push(root.Children)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case node.Tag == TagFlowerPlant:
			ff.plants = append(ff.plants, node)
			push(node.Children)
		case node.Flower != nil:
			ff.register(node.Flower)
		default:
			push(node.Children)
		}
	}
}

func (ff *FlowerField) register(f *Flower) {
	if _, dup := ff.byRegion[f.region]; dup {
		panic(fmt.Sprintf("flowers: duplicate nectar region %d", f.region))
	}
	ff.flowers = append(ff.flowers, f)
	ff.byRegion[f.region] = f
}

// ResetAll re-orients every plant with a small random tilt and a full
// random yaw, then refills every flower. Runs to completion before the
// agent loop may query the field again.
func (ff *FlowerField) ResetAll(rng *rand.Rand, tiltMaxDeg float64) {
	for _, plant := range ff.plants {
		tiltX := randRange(rng, -tiltMaxDeg, tiltMaxDeg)
		tiltZ := randRange(rng, -tiltMaxDeg, tiltMaxDeg)
		yaw := randRange(rng, -180, 180)
		plant.Rot = quat.Mul(
			AxisAngleDeg(AxisY, yaw),
			quat.Mul(AxisAngleDeg(AxisX, tiltX), AxisAngleDeg(AxisZ, tiltZ)),
		)
	}
	for _, f := range ff.flowers {
		f.Reset()
	}
}

// LookupByRegion resolves a nectar region to its owning flower. An
// unregistered region is a caller invariant violation and panics.
func (ff *FlowerField) LookupByRegion(id RegionID) *Flower {
	f, ok := ff.byRegion[id]
	if !ok {
		panic(fmt.Sprintf("flowers: lookup of unregistered nectar region %d", id))
	}
	return f
}

// Flowers returns the flower collection in canonical discovery order.
func (ff *FlowerField) Flowers() []*Flower { return ff.flowers }

// Plants returns the registered plant containers.
func (ff *FlowerField) Plants() []*Node { return ff.plants }

// Origin returns the field center.
func (ff *FlowerField) Origin() r3.Vec { return ff.origin }

// NectarAvailable sums the remaining nectar across the field.
func (ff *FlowerField) NectarAvailable() float64 {
	var total float64
	for _, f := range ff.flowers {
		total += f.nectar
	}
	return total
}

// randRange returns a uniform value in [lo, hi).
func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
