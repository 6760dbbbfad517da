package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/viewmodel"
)

// resolvePlanID accepts a full plan id, a unique id prefix (offline plans
// carry UUIDs) or a unique topic, compared case-insensitively.
func resolvePlanID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("plan id is required")
	}

	_, err := app.Plans.Get(ctx, input)
	if err == nil {
		return input, nil
	}
	if !errors.Is(err, service.ErrPlanNotFound) {
		return "", err
	}

	list, err := app.Plans.List(ctx)
	if err != nil {
		return "", err
	}
	var byPrefix, byTopic []string
	for _, p := range list.Plans {
		if strings.HasPrefix(p.ID, input) {
			byPrefix = append(byPrefix, p.ID)
		}
		if strings.EqualFold(p.MainTopic, input) {
			byTopic = append(byTopic, p.ID)
		}
	}
	for _, matches := range [][]string{byPrefix, byTopic} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("plan %q is ambiguous (%d matches)", input, len(matches))
		}
	}
	return "", fmt.Errorf("%w: %q", service.ErrPlanNotFound, input)
}

// resolveNodeID accepts a node id or a unique topic label.
func resolveNodeID(model *viewmodel.Model, input string) (string, error) {
	if _, ok := model.Node(input); ok {
		return input, nil
	}
	var matches []string
	for _, n := range model.Nodes() {
		if strings.EqualFold(n.Label, input) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", viewmodel.ErrUnknownNode, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("topic %q is ambiguous (%d matches)", input, len(matches))
	}
}
