package competency

import "sort"

// Matrix is the sparse (career band x competency) -> required level mapping.
// A missing cell means the competency is not required for the band.
type Matrix struct {
	cells map[string]map[string]int
}

func NewMatrix(reqs []Requirement) *Matrix {
	m := &Matrix{cells: map[string]map[string]int{}}
	for _, req := range reqs {
		if !ValidRequiredLevel(req.RequiredLevel) {
			continue
		}
		m.put(req.CareerBandID, req.CompetencyID, req.RequiredLevel)
	}
	return m
}

// Set stores a required level, or removes the cell when level is nil.
func (m *Matrix) Set(bandID, competencyID string, level *int) error {
	if level == nil {
		if row, ok := m.cells[bandID]; ok {
			delete(row, competencyID)
			if len(row) == 0 {
				delete(m.cells, bandID)
			}
		}
		return nil
	}
	if !ValidRequiredLevel(*level) {
		return ErrInvalidRequiredLevel
	}
	m.put(bandID, competencyID, *level)
	return nil
}

func (m *Matrix) Get(bandID, competencyID string) (int, bool) {
	level, ok := m.cells[bandID][competencyID]
	return level, ok
}

// ForBand lists the band's requirements ordered by competency id.
func (m *Matrix) ForBand(bandID string) []Requirement {
	row := m.cells[bandID]
	out := make([]Requirement, 0, len(row))
	for competencyID, level := range row {
		out = append(out, Requirement{CareerBandID: bandID, CompetencyID: competencyID, RequiredLevel: level})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompetencyID < out[j].CompetencyID })
	return out
}

func (m *Matrix) HasRequirements(bandID string) bool {
	return len(m.cells[bandID]) > 0
}

// BandIDs lists the bands with at least one requirement, sorted.
func (m *Matrix) BandIDs() []string {
	out := make([]string, 0, len(m.cells))
	for bandID := range m.cells {
		out = append(out, bandID)
	}
	sort.Strings(out)
	return out
}

// Len counts the populated cells.
func (m *Matrix) Len() int {
	total := 0
	for _, row := range m.cells {
		total += len(row)
	}
	return total
}

func (m *Matrix) put(bandID, competencyID string, level int) {
	row, ok := m.cells[bandID]
	if !ok {
		row = map[string]int{}
		m.cells[bandID] = row
	}
	row[competencyID] = level
}
