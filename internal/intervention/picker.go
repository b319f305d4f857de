package intervention

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suggestkit/suggestd/internal/scorer"
	"github.com/suggestkit/suggestd/pkg/errors"
	"github.com/suggestkit/suggestd/pkg/metrics"
)

// Picker turns a ranking into at most one surfaced intervention. Host
// failures never surface to the user: the pick degrades to nil.
type Picker struct {
	host     HostClient
	maxScore int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPicker creates a Picker. maxScore is the cutoff a document's summed
// score must not exceed to be surfaced.
func NewPicker(host HostClient, maxScore int, m *metrics.Metrics) *Picker {
	return &Picker{
		host:     host,
		maxScore: maxScore,
		metrics:  m,
		logger:   slog.Default().With("component", "intervention-picker"),
	}
}

// Pick selects the intervention for the top-ranked document, if any
// document ranks within the cutoff. Update suggestions fan out on the
// host's live update state.
func (p *Picker) Pick(ctx context.Context, ranking []scorer.ScoredDoc) *Picked {
	if len(ranking) == 0 {
		return nil
	}
	top := ranking[0]
	if !top.Matched || top.Score > p.maxScore {
		return nil
	}

	var action Action
	switch top.DocumentID {
	case DocClearData:
		action = ActionClearData
	case DocRefreshProfile:
		action = ActionRefreshProfile
	case DocUpdateApp:
		var ok bool
		action, ok = p.updateAction(ctx)
		if !ok {
			return nil
		}
	default:
		// Corpus documents beyond the built-in interventions rank but
		// carry no host action.
		return nil
	}

	p.count("picked", top.DocumentID)
	return &Picked{ID: top.DocumentID, Action: action, Score: top.Score}
}

// updateAction maps the host's update state to the action worth suggesting.
func (p *Picker) updateAction(ctx context.Context) (Action, bool) {
	status, err := p.host.UpdateStatus(ctx)
	if err != nil {
		p.logger.Warn("update status unavailable, suppressing update suggestion", "error", err)
		p.count("host_unavailable", DocUpdateApp)
		return "", false
	}

	switch status {
	case StatusStaged, StatusReadyForRestart:
		return ActionRestartToUpdate, true
	case StatusChecking, StatusDownloading:
		return ActionShowUpdateDialog, true
	case StatusNoUpdate:
		// Already current: a profile refresh is the useful suggestion
		// for "app is slow / broken after update" queries.
		return ActionRefreshProfile, true
	case StatusManualOnly, StatusDisabled, StatusUnavailable:
		return ActionOpenDownloadPage, true
	default:
		p.logger.Warn("unknown update status", "status", status)
		return "", false
	}
}

// Invoke executes the host command for a previously picked intervention.
func (p *Picker) Invoke(ctx context.Context, id string, action Action) error {
	var err error
	switch action {
	case ActionClearData:
		err = p.host.ClearData(ctx)
	case ActionRefreshProfile:
		err = p.host.RefreshProfile(ctx)
	case ActionShowUpdateDialog:
		err = p.host.OpenUpdateDialog(ctx)
	case ActionRestartToUpdate:
		err = p.host.Restart(ctx)
	case ActionOpenDownloadPage:
		err = p.host.CheckForUpdate(ctx)
	default:
		return fmt.Errorf("%w: unknown action %q", errors.ErrInvalidInput, action)
	}
	if err != nil {
		p.count("invoke_failed", id)
		return err
	}
	p.count("invoked", id)
	return nil
}

func (p *Picker) count(event, id string) {
	if p.metrics != nil {
		p.metrics.InterventionsPicked.WithLabelValues(event, id).Inc()
	}
}
