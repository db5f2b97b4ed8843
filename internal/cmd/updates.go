package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/tidwall/jsonc"
)

// readUpdates loads an update file. "-" reads stdin. The file is JSON with
// comments and trailing commas allowed, either a list of updates or an
// object with an "updates" list:
//
//	{
//	  // plan written for 1.2
//	  "updates": [
//	    {"node_id": "1.2", "plan": "#40"},
//	    {"node_id": "1.1", "status": "done", "plan": null, "pr": "#38"},
//	  ],
//	}
//
// A null field clears it; an absent field is left alone.
func readUpdates(path string, stdin io.Reader) ([]mutate.Update, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read updates: %w", err)
	}
	return parseUpdates(data)
}

func parseUpdates(data []byte) ([]mutate.Update, error) {
	clean := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(clean) == 0 {
		return nil, errors.NewValidationError("update file is empty").WithField("updates")
	}

	var entries []map[string]json.RawMessage
	if clean[0] == '[' {
		if err := json.Unmarshal(clean, &entries); err != nil {
			return nil, invalidUpdates(err)
		}
	} else {
		var wrapper struct {
			Updates []map[string]json.RawMessage `json:"updates"`
		}
		if err := json.Unmarshal(clean, &wrapper); err != nil {
			return nil, invalidUpdates(err)
		}
		entries = wrapper.Updates
	}

	updates := make([]mutate.Update, 0, len(entries))
	for i, e := range entries {
		u, err := parseUpdateEntry(e)
		if err != nil {
			return nil, errors.Wrapf(err, "update %d", i+1)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func parseUpdateEntry(e map[string]json.RawMessage) (mutate.Update, error) {
	var u mutate.Update
	for key := range e {
		switch key {
		case "node_id", "id", "status", "plan", "pr":
		default:
			return u, errors.NewValidationError("unknown field").WithField(key)
		}
	}

	raw, ok := e["node_id"]
	if !ok {
		raw, ok = e["id"]
	}
	if !ok || json.Unmarshal(raw, &u.NodeID) != nil || strings.TrimSpace(u.NodeID) == "" {
		return u, errors.NewValidationError("missing node_id").WithField("node_id")
	}

	var err error
	if u.Status, err = jsonField(e, "status"); err != nil {
		return u, err
	}
	if u.Plan, err = jsonField(e, "plan"); err != nil {
		return u, err
	}
	if u.PR, err = jsonField(e, "pr"); err != nil {
		return u, err
	}
	return u, nil
}

// jsonField reads one three-state field: absent preserves, null clears,
// a string sets.
func jsonField(e map[string]json.RawMessage, key string) (mutate.Field, error) {
	raw, ok := e[key]
	if !ok {
		return mutate.Preserve(), nil
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return mutate.Clear(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return mutate.Field{}, errors.NewValidationError("must be a string or null").WithField(key).WithValue(string(raw))
	}
	return mutate.Set(s), nil
}

func invalidUpdates(err error) error {
	return errors.NewValidationError("update file is not valid JSON").WithField("updates").WithCause(err)
}
