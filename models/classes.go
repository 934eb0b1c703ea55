package models

import (
	"fmt"

	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/nudenet"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a model family to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Family model.Family
	// Classes that are supported and mappable.
	Classes []OutputClass
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// BuildNameIndexMap builds or rebuilds the name->index map.
func (s *OutputClassSet) BuildNameIndexMap() {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	for _, c := range s.Classes {
		s.nameToIdx[c.Name] = c.Index
	}
}

// ClassManager holds all registered class sets.
type ClassManager struct {
	sets map[model.Family]*OutputClassSet
}

// NewClassManager initializes and registers the given sets.
func NewClassManager(allSets ...*OutputClassSet) *ClassManager {
	mgr := &ClassManager{sets: make(map[model.Family]*OutputClassSet)}
	for _, set := range allSets {
		set.BuildNameIndexMap()
		mgr.sets[set.Family] = set
	}
	return mgr
}

// DefaultClassManager returns a manager with every built-in class set registered.
func DefaultClassManager() *ClassManager {
	sets := make([]*OutputClassSet, len(AllClassSets))
	for i := range AllClassSets {
		set := AllClassSets[i]
		sets[i] = &set
	}
	return NewClassManager(sets...)
}

// GetName returns the class name for a given family and index.
func (m *ClassManager) GetName(family model.Family, idx int) (string, error) {
	set, ok := m.sets[family]
	if !ok {
		return "", fmt.Errorf("family %q not registered", family)
	}
	if idx < 0 || idx >= len(set.Classes) {
		return "", fmt.Errorf("index %d out of range for family %q", idx, family)
	}
	return set.Classes[idx].Name, nil
}

// GetIndex returns the class index for a given family and name.
func (m *ClassManager) GetIndex(family model.Family, name string) (int, error) {
	set, ok := m.sets[family]
	if !ok {
		return -1, fmt.Errorf("family %q not registered", family)
	}
	idx, ok := set.nameToIdx[name]
	if !ok {
		return -1, fmt.Errorf("name %q not found in family %q", name, family)
	}
	return idx, nil
}

// GetIndices resolves a list of names, failing on the first unknown one.
func (m *ClassManager) GetIndices(family model.Family, names []string) ([]int, error) {
	indices := make([]int, 0, len(names))
	for _, name := range names {
		idx, err := m.GetIndex(family, name)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// NudeNetClasses is the 18 NudeNet body-part labels, zero-based.
var NudeNetClasses = OutputClassSet{
	Family: model.ModelFamilyNudeNet,
	Classes: func() []OutputClass {
		classes := make([]OutputClass, len(nudenet.Labels))
		for i, name := range nudenet.Labels {
			classes[i] = OutputClass{i, name}
		}
		return classes
	}(),
}

// AllClassSets collects every OutputClassSet in one place.
var AllClassSets = []OutputClassSet{
	NudeNetClasses,
}

// LookupName returns the class name for a given family and index.
// If index is out of range, it returns an empty string.
func LookupName(family model.Family, idx int) string {
	for _, set := range AllClassSets {
		if set.Family == family {
			if idx >= 0 && idx < len(set.Classes) {
				return set.Classes[idx].Name
			}
			return ""
		}
	}
	return ""
}
