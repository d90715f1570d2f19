// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/roomhub/internal/domain/models"
)

// Email trims surrounding whitespace and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title normalizes a room title the same way as Name.
func Title(s string) string {
	return Name(s)
}

// QueryParam trims whitespace from a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Skills trims each skill, drops empties and removes case-insensitive
// duplicates, keeping the first spelling seen.
func Skills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = Name(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// Specialization matches s case-insensitively against the known
// specializations and returns the canonical spelling. An empty input
// yields the default. ok is false when s is not recognized.
func Specialization(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.SpecGuest, true
	}
	for _, v := range models.Specializations {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

// Topic matches s case-insensitively against the room topics. An empty
// input yields the default.
func Topic(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.TopicGeneral, true
	}
	for _, v := range models.RoomTopics {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

// RoomType lowercases s and applies the public default.
func RoomType(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.RoomPublic, true
	}
	return s, models.IsValidRoomType(s)
}

// TaskStatus lowercases s and applies the "not started" default.
func TaskStatus(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.TaskNotStarted, true
	}
	return s, models.IsValidTaskStatus(s)
}
