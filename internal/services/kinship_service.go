package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
)

// ErrNoRelation indicates no kinship path connects the two members.
var ErrNoRelation = errors.New("kinship service: no relation found")

// Relation describes the kinship between two members. Path holds member ids
// from the first endpoint up to the common ancestor and back down to the
// second endpoint.
type Relation struct {
	Label    string   `json:"label"`
	Distance int      `json:"distance"`
	Path     []string `json:"path"`
}

// KinshipService derives relationship labels from the stored edge set. It
// walks parent edges upward from both endpoints and names the relation from
// the distances to the nearest common ancestor.
type KinshipService struct {
	db *gorm.DB
}

// NewKinshipService constructs a KinshipService.
func NewKinshipService(db *gorm.DB) (*KinshipService, error) {
	if db == nil {
		return nil, errors.New("kinship service: db is required")
	}
	return &KinshipService{db: db}, nil
}

// Relate computes the kinship between two members. Returns ErrNoRelation when
// no parent chain, sibling edge, or spouse edge connects them.
func (s *KinshipService) Relate(ctx context.Context, aID, bID string) (*Relation, error) {
	ctx = ensureContext(ctx)

	if aID == bID {
		return &Relation{Label: "self", Distance: 0, Path: []string{aID}}, nil
	}

	// Direct spouse and sibling edges are stored explicitly and take
	// precedence over any blood path.
	direct, err := s.directEdge(ctx, aID, bID)
	if err != nil {
		return nil, err
	}
	if direct != "" {
		label := "spouse"
		if direct == models.RelationshipSibling {
			label = "sibling"
		}
		return &Relation{Label: label, Distance: 1, Path: []string{aID, bID}}, nil
	}

	parents, err := s.parentMap(ctx)
	if err != nil {
		return nil, err
	}

	distA := ancestorDistances(aID, parents)
	distB := ancestorDistances(bID, parents)

	ancestor, dA, dB, ok := nearestCommonAncestor(distA, distB)
	if !ok {
		return nil, ErrNoRelation
	}

	label := labelFromDistances(dA, dB)
	path := buildPath(aID, bID, ancestor, parents)
	return &Relation{Label: label, Distance: dA + dB, Path: path}, nil
}

func (s *KinshipService) directEdge(ctx context.Context, aID, bID string) (string, error) {
	var edge models.Relationship
	err := s.db.WithContext(ctx).
		Where("relationship_type IN ?", []string{models.RelationshipSibling, models.RelationshipSpouse}).
		Where("(parent_id = ? AND child_id = ?) OR (parent_id = ? AND child_id = ?)", aID, bID, bID, aID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("kinship service: load direct edge: %w", err)
	}
	return edge.RelationshipType, nil
}

// parentMap loads the child -> parents adjacency from parent edges.
func (s *KinshipService) parentMap(ctx context.Context) (map[string][]string, error) {
	var edges []models.Relationship
	if err := s.db.WithContext(ctx).
		Where("relationship_type = ?", models.RelationshipParent).
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("kinship service: load parent edges: %w", err)
	}

	parents := make(map[string][]string, len(edges))
	for _, edge := range edges {
		parents[edge.ChildID] = append(parents[edge.ChildID], edge.ParentID)
	}
	return parents, nil
}

// ancestorDistances walks parent edges upward via BFS, recording the minimum
// edge count to each reachable ancestor. The visited set guards against
// malformed cyclic data.
func ancestorDistances(start string, parents map[string][]string) map[string]int {
	dist := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, parent := range parents[current] {
			if _, seen := dist[parent]; seen {
				continue
			}
			dist[parent] = dist[current] + 1
			queue = append(queue, parent)
		}
	}
	return dist
}

// nearestCommonAncestor picks the shared ancestor minimizing combined
// distance, tie-broken on the smaller first-endpoint distance, then id.
func nearestCommonAncestor(distA, distB map[string]int) (ancestor string, dA, dB int, ok bool) {
	type candidate struct {
		id     string
		dA, dB int
	}
	var candidates []candidate
	for id, da := range distA {
		if db, shared := distB[id]; shared {
			candidates = append(candidates, candidate{id: id, dA: da, dB: db})
		}
	}
	if len(candidates) == 0 {
		return "", 0, 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.dA+ci.dB != cj.dA+cj.dB {
			return ci.dA+ci.dB < cj.dA+cj.dB
		}
		if ci.dA != cj.dA {
			return ci.dA < cj.dA
		}
		return ci.id < cj.id
	})
	best := candidates[0]
	return best.id, best.dA, best.dB, true
}

func labelFromDistances(dA, dB int) string {
	switch {
	case dA == 0:
		// b descends from a.
		return descendantLabel(dB)
	case dB == 0:
		// a descends from b.
		return ancestorLabel(dA)
	case dA == 1 && dB == 1:
		return "sibling"
	case dA == 1 || dB == 1:
		// One endpoint is a sibling of the other's ancestor.
		return auntUncleLabel(dA, dB)
	default:
		degree := minInt(dA, dB) - 1
		removal := absInt(dA - dB)
		return cousinLabel(degree, removal)
	}
}

func ancestorLabel(generations int) string {
	switch generations {
	case 1:
		return "parent"
	case 2:
		return "grandparent"
	default:
		return greats(generations-2) + "grandparent"
	}
}

func descendantLabel(generations int) string {
	switch generations {
	case 1:
		return "child"
	case 2:
		return "grandchild"
	default:
		return greats(generations-2) + "grandchild"
	}
}

func auntUncleLabel(dA, dB int) string {
	if dA > dB {
		// a is further from the ancestor: b is a's aunt/uncle line.
		if dA == 2 {
			return "aunt/uncle"
		}
		return greats(dA-2) + "aunt/uncle"
	}
	if dB == 2 {
		return "niece/nephew"
	}
	return greats(dB-2) + "niece/nephew"
}

func cousinLabel(degree, removal int) string {
	label := fmt.Sprintf("%s cousin", ordinal(degree))
	switch removal {
	case 0:
		return label
	case 1:
		return label + " once removed"
	case 2:
		return label + " twice removed"
	default:
		return fmt.Sprintf("%s %d times removed", label, removal)
	}
}

func greats(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "great-"
	}
	return out
}

func ordinal(n int) string {
	switch n % 100 {
	case 11, 12, 13:
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// buildPath reconstructs a shortest member-id chain a -> ancestor -> b.
func buildPath(aID, bID, ancestor string, parents map[string][]string) []string {
	up := chainToAncestor(aID, ancestor, parents)
	down := chainToAncestor(bID, ancestor, parents)

	path := make([]string, 0, len(up)+len(down)-1)
	path = append(path, up...)
	for i := len(down) - 2; i >= 0; i-- {
		path = append(path, down[i])
	}
	return path
}

// chainToAncestor returns start..ancestor inclusive via BFS parent tracking.
func chainToAncestor(start, ancestor string, parents map[string][]string) []string {
	if start == ancestor {
		return []string{start}
	}
	prev := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, parent := range parents[current] {
			if _, seen := prev[parent]; seen {
				continue
			}
			prev[parent] = current
			if parent == ancestor {
				var chain []string
				for node := parent; node != ""; node = prev[node] {
					chain = append(chain, node)
				}
				// chain reads ancestor..start, flip to start..ancestor.
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return chain
			}
			queue = append(queue, parent)
		}
	}
	return []string{start}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
