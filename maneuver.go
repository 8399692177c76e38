package lsp

import (
	"math"
	"sort"
	"time"

	"github.com/gonum/matrix/mat64"
)

// ManeuverNode is a planned, not-yet-executed velocity change at a future
// point on the trajectory. Purely advisory: prediction reads it, nothing
// executes it.
type ManeuverNode struct {
	ID               int
	OrbitTime        float64 // seconds from now along the orbit
	EccentricAnomaly float64 // where on the current ellipse the burn happens
	Prograde         float64 // m/s along the velocity direction
	Radial           float64 // m/s along the radial direction
}

// DeltaV returns the total magnitude of the planned change.
func (n *ManeuverNode) DeltaV() float64 {
	return math.Hypot(n.Prograde, n.Radial)
}

// ManeuverNodeManager keeps the planned nodes sorted ascending by orbit
// time. It never mutates live Body or Rocket state; all prediction
// operates on scalar snapshots.
type ManeuverNodeManager struct {
	nodes  []*ManeuverNode
	nextID int

	cachedPoints []Vector2 // flattened last prediction, for closest-point queries
}

// NewManeuverNodeManager returns an empty manager.
func NewManeuverNodeManager() *ManeuverNodeManager {
	return &ManeuverNodeManager{}
}

// Nodes returns the nodes in chronological order.
func (m *ManeuverNodeManager) Nodes() []*ManeuverNode {
	return m.nodes
}

// AddNode inserts a node and returns it. The collection re-sorts.
func (m *ManeuverNodeManager) AddNode(orbitTime, eccentricAnomaly, prograde, radial float64) *ManeuverNode {
	m.nextID++
	node := &ManeuverNode{
		ID:               m.nextID,
		OrbitTime:        orbitTime,
		EccentricAnomaly: eccentricAnomaly,
		Prograde:         prograde,
		Radial:           radial,
	}
	m.nodes = append(m.nodes, node)
	m.sortNodes()
	return node
}

// RemoveNode drops a node by id.
func (m *ManeuverNodeManager) RemoveNode(id int) {
	for i, n := range m.nodes {
		if n.ID == id {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}

// SetNodeTime edits a node's time and re-sorts the collection.
func (m *ManeuverNodeManager) SetNodeTime(id int, orbitTime float64) {
	for _, n := range m.nodes {
		if n.ID == id {
			n.OrbitTime = orbitTime
			m.sortNodes()
			return
		}
	}
}

func (m *ManeuverNodeManager) sortNodes() {
	sort.SliceStable(m.nodes, func(i, j int) bool {
		return m.nodes[i].OrbitTime < m.nodes[j].OrbitTime
	})
}

// TrajectorySegment is one displayable run of predicted points. Segments
// split at maneuver nodes so the renderer can color them separately.
type TrajectorySegment struct {
	Points   []Vector2
	Analytic bool // traced on the known ellipse rather than integrated
}

// dominantBody returns the body whose gravity well dominates at the given
// position: the one with the lowest surface altitude. Prediction always
// integrates against a single parent to keep far-body perturbation noise
// out of the displayed line.
func dominantBody(s *System, position Vector2, exclude *Body) *Body {
	var dominant *Body
	minAltitude := math.Inf(1)
	for _, b := range s.Bodies {
		if b == exclude || b.Mass <= 0 {
			continue
		}
		d := position.DistanceTo(b.Position)
		if d < zeroε {
			continue
		}
		if alt := d - b.Radius; alt < minAltitude {
			minAltitude = alt
			dominant = b
		}
	}
	return dominant
}

// propagateNumeric integrates numSteps of symplectic Euler under the
// parent body's gravity only, in the parent's reference frame for
// numerical stability. Cheaper than the live Verlet scheme on purpose:
// this is a disposable look-ahead, not authoritative state. Returns the
// sampled world points and the final relative state.
func propagateNumeric(parent *Body, pos, vel Vector2, μ float64, numSteps int, timeStep float64) (points []Vector2, endPos, endVel Vector2) {
	rel := pos
	rel.Sub(parent.Position)
	relV := vel
	relV.Sub(parent.Velocity)

	points = make([]Vector2, 0, numSteps)
	for i := 0; i < numSteps; i++ {
		r2 := rel.NormSq()
		if r2 > zeroε {
			accel := rel.Unit()
			accel.Scale(-μ / r2)
			relV.AddScaled(timeStep, accel)
		}
		rel.AddScaled(timeStep, relV)
		world := rel
		world.Add(parent.Position)
		points = append(points, world)
	}
	endPos = rel
	endPos.Add(parent.Position)
	endVel = relV
	endVel.Add(parent.Velocity)
	return points, endPos, endVel
}

// analyticArcSamples is the point count of the ellipse-traced first
// segment.
const analyticArcSamples = 64

// PredictTrajectory forward-simulates the rocket's path for display,
// splicing analytic orbital arcs with numerical propagation across the
// planned maneuver nodes. Live state is never touched. numSteps and
// timeStep bound each numerical segment; the caller owns the deadline.
func (m *ManeuverNodeManager) PredictTrajectory(r *Rocket, s *System, numSteps int, timeStep float64) []TrajectorySegment {
	parent := dominantBody(s, r.Body.Position, r.Body)
	if parent == nil {
		return nil
	}
	μ := G * (parent.Mass + r.Body.Mass)

	simPos := r.Body.Position
	simVel := r.Body.Velocity
	var segments []TrajectorySegment

	if len(m.nodes) == 0 {
		points, _, _ := propagateNumeric(parent, simPos, simVel, μ, numSteps, timeStep)
		segments = []TrajectorySegment{{Points: points}}
		m.cachePoints(segments)
		return segments
	}

	first := m.nodes[0]
	orbit := ComputeOrbit(r.Body, parent)
	if orbit != nil {
		// Trace the known ellipse from the rocket's position to the
		// node's anomaly so the predicted line coincides with the orbit
		// already on screen.
		points, nodePos, nodeVel := analyticArc(orbit, parent, r.Body.Position, first.EccentricAnomaly)
		segments = append(segments, TrajectorySegment{Points: points, Analytic: true})
		simPos = nodePos
		simVel = nodeVel
	} else {
		points, endPos, endVel := propagateNumeric(parent, simPos, simVel, μ, numSteps, timeStep)
		segments = append(segments, TrajectorySegment{Points: points})
		simPos, simVel = endPos, endVel
	}

	for i, node := range m.nodes {
		if i > 0 {
			points, endPos, endVel := propagateNumeric(parent, simPos, simVel, μ, numSteps, timeStep)
			segments = append(segments, TrajectorySegment{Points: points})
			simPos, simVel = endPos, endVel
		}
		simVel = applyManeuver(node, parent, simPos, simVel)
	}

	// Tail after the last node.
	points, _, _ := propagateNumeric(parent, simPos, simVel, μ, numSteps, timeStep)
	segments = append(segments, TrajectorySegment{Points: points})

	m.cachePoints(segments)
	return segments
}

// analyticArc samples the ellipse from the current position's anomaly to
// targetE (shortest forward arc, ΔE wrapped into [0,2π)) and returns the
// exact analytic state at the end point.
func analyticArc(orbit *OrbitalElements, parent *Body, position Vector2, targetE float64) (points []Vector2, endPos, endVel Vector2) {
	E0 := orbit.EccentricAnomalyOf(parent.Position, position)
	ΔE := math.Mod(targetE-E0, 2*math.Pi)
	if ΔE < 0 {
		ΔE += 2 * math.Pi
	}
	points = make([]Vector2, 0, analyticArcSamples+1)
	for i := 0; i <= analyticArcSamples; i++ {
		E := E0 + ΔE*float64(i)/analyticArcSamples
		points = append(points, orbit.PointAtE(parent.Position, E))
	}
	endPos = points[len(points)-1]

	// Analytic velocity at the end anomaly: tangent direction from the
	// ellipse parametrization, magnitude from vis-viva.
	sinE, cosE := math.Sincos(E0 + ΔE)
	tangent := NewVector2(-orbit.a*sinE, orbit.b*cosE)
	tangent.Rotate(orbit.ω)
	tangent.Normalize()
	rNorm := endPos.DistanceTo(parent.Position)
	speed := math.Sqrt(orbit.μ * (2/rNorm - 1/orbit.a))
	endVel = tangent
	endVel.Scale(speed)
	endVel.Add(parent.Velocity)
	return points, endPos, endVel
}

// applyManeuver returns the post-burn velocity: the node's Δv applied
// instantaneously in the prograde/radial frame at the node position.
func applyManeuver(node *ManeuverNode, parent *Body, pos, vel Vector2) Vector2 {
	relV := vel
	relV.Sub(parent.Velocity)
	prograde := relV.Unit()
	radial := pos
	radial.Sub(parent.Position)
	radial.Normalize()

	out := vel
	out.AddScaled(node.Prograde, prograde)
	out.AddScaled(node.Radial, radial)
	return out
}

func (m *ManeuverNodeManager) cachePoints(segments []TrajectorySegment) {
	m.cachedPoints = m.cachedPoints[:0]
	for _, seg := range segments {
		m.cachedPoints = append(m.cachedPoints, seg.Points...)
	}
}

// ClosestPoint returns the index, point and distance of the cached
// predicted point nearest to position. Linear scan; UI node placement
// only, not performance-critical.
func (m *ManeuverNodeManager) ClosestPoint(position Vector2) (index int, point Vector2, distance float64) {
	index = -1
	distance = math.Inf(1)
	target := mat64.NewVector(2, []float64{position.X, position.Y})
	diff := mat64.NewVector(2, nil)
	for i, p := range m.cachedPoints {
		diff.SubVec(mat64.NewVector(2, []float64{p.X, p.Y}), target)
		if d := mat64.Norm(diff, 2); d < distance {
			distance = d
			index = i
			point = p
		}
	}
	return index, point, distance
}

// HohmannEstimate computes the departure and arrival speeds and the time
// of flight of a Hohmann transfer between two circular radii about the
// given body. Used to pre-fill maneuver node Δv when planning.
func HohmannEstimate(rI, rF float64, body *Body) (vDeparture, vArrival float64, tof time.Duration) {
	μ := body.GM()
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival = math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/μ)) * time.Second
	return
}
