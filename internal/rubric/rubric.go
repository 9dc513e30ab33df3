// Package rubric holds the scoring rubric: for each communication skill,
// five leveled descriptions from 1 (poor) to 5 (masterful).
package rubric

import (
	"fmt"
	"maps"
	"strings"
)

// Levels are the score keys every skill defines, lowest first.
var Levels = []string{"1", "2", "3", "4", "5"}

type Skill struct {
	Name   string
	Levels map[string]string
}

// Store is a read-only rubric table. Build one with New or Default and
// share it; nothing mutates it after construction.
type Store struct {
	skills map[string]Skill
	order  []string
}

// New builds a Store, rejecting skills that do not define all five levels.
func New(skills ...Skill) (*Store, error) {
	s := &Store{skills: make(map[string]Skill, len(skills))}
	for _, sk := range skills {
		if strings.TrimSpace(sk.Name) == "" {
			return nil, fmt.Errorf("rubric: skill name must not be empty")
		}
		if _, dup := s.skills[sk.Name]; dup {
			return nil, fmt.Errorf("rubric: duplicate skill %q", sk.Name)
		}
		for _, lvl := range Levels {
			if strings.TrimSpace(sk.Levels[lvl]) == "" {
				return nil, fmt.Errorf("rubric: skill %q missing level %s", sk.Name, lvl)
			}
		}
		s.skills[sk.Name] = sk.clone()
		s.order = append(s.order, sk.Name)
	}
	return s, nil
}

// Lookup returns a copy of the named skill.
func (s *Store) Lookup(name string) (Skill, bool) {
	sk, ok := s.skills[name]
	if !ok {
		return Skill{}, false
	}
	return sk.clone(), true
}

// Select resolves names against the store, keeping the caller's order.
// Names the store does not know are returned in missing. The skills are
// copies.
func (s *Store) Select(names []string) (skills []Skill, missing []string) {
	for _, n := range names {
		if sk, ok := s.skills[n]; ok {
			skills = append(skills, sk.clone())
		} else {
			missing = append(missing, n)
		}
	}
	return skills, missing
}

func (sk Skill) clone() Skill {
	return Skill{Name: sk.Name, Levels: maps.Clone(sk.Levels)}
}

// Render formats skills as the rubric text handed to the scoring model.
func Render(skills []Skill) string {
	var b strings.Builder
	for i, sk := range skills {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Skill: %s\n", sk.Name)
		for _, lvl := range Levels {
			fmt.Fprintf(&b, "  Score %s: %s\n", lvl, sk.Levels[lvl])
		}
	}
	return b.String()
}
