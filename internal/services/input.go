package services

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// parseID turns a path parameter into a uuid. A malformed id can never match
// a row, so it is reported as the entity's not-found error.
func parseID(raw, missing string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, notFound(missing)
	}
	return id, nil
}

func parseIDList(field string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, invalid("Invalid value for " + field + ": expected uuid")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// takeRelation removes key from raw and decodes its value into dst.
// It reports whether the key was present; an explicit null counts as
// present and leaves dst empty.
func takeRelation(raw map[string]any, key string, dst any) (bool, error) {
	value, ok := raw[key]
	if !ok {
		return false, nil
	}
	delete(raw, key)
	if value == nil {
		return true, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return true, invalid("Invalid value for " + key)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return true, invalid("Invalid value for " + key)
	}
	return true, nil
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func requireString(s, msg string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", invalid(msg)
	}
	return v, nil
}

// JobSkillInput is one entry of a job's skill_requirements.
type JobSkillInput struct {
	SkillID       string `json:"skill_id"`
	RequiredLevel int    `json:"required_level"`
}

// TaskRewardInput is one entry of a task's skill_rewards.
type TaskRewardInput struct {
	SkillID     string `json:"skill_id"`
	LevelReward int    `json:"level_reward"`
}

type skillLevel struct {
	SkillID uuid.UUID
	Level   int
}

func jobSkillLevels(in []JobSkillInput) ([]skillLevel, error) {
	return normalizeSkillLevels("skill_requirements", len(in), func(i int) (string, int) {
		return in[i].SkillID, in[i].RequiredLevel
	})
}

func taskSkillLevels(in []TaskRewardInput) ([]skillLevel, error) {
	return normalizeSkillLevels("skill_rewards", len(in), func(i int) (string, int) {
		return in[i].SkillID, in[i].LevelReward
	})
}

// normalizeSkillLevels validates ids and defaults a missing level to one.
// A repeated skill keeps its last level.
func normalizeSkillLevels(field string, n int, at func(int) (string, int)) ([]skillLevel, error) {
	out := make([]skillLevel, 0, n)
	index := make(map[uuid.UUID]int, n)
	for i := 0; i < n; i++ {
		rawID, level := at(i)
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return nil, invalid("Invalid value for " + field + ": expected skill_id uuid")
		}
		if level <= 0 {
			level = 1
		}
		if j, dup := index[id]; dup {
			out[j].Level = level
			continue
		}
		index[id] = len(out)
		out = append(out, skillLevel{SkillID: id, Level: level})
	}
	return out, nil
}
