package reports

import (
	"cmp"
	"fmt"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
	"pet-admin-sync/internal/sync/view"
)

type Domain struct{}

var _ entity.Domain[Report] = Domain{}

func (Domain) Kind() entity.Kind { return entity.KindReports }

func (Domain) Declared(status string) bool { return Machine.Declared(Status(status)) }

func (d Domain) Eligible(cur Report, cmd entity.Command, role entity.Role) bool {
	_, err := d.Plan(cur, cmd, role)
	return err == nil
}

func (Domain) Plan(cur Report, cmd entity.Command, role entity.Role) (entity.Plan[Report], error) {
	r, to, err := Machine.Step(cur.Meta, cur.Status, cmd, role)
	if err != nil {
		return entity.Plan[Report]{}, err
	}
	if !approvalGate(cur, r.Action) {
		return entity.Plan[Report]{}, &entity.StaleEligibilityError{ID: cur.ID, Action: cmd.Action, Status: string(cur.Status)}
	}

	next := cur
	next.Status = to
	next.Meta = statemachine.ApplyOp(next.Meta, r.Op)
	ev := statemachine.EventFor(r.Op)

	switch r.Action {
	case ActionApprove:
		next.Approved = true
	case ActionMatch:
		matchID := strings.TrimSpace(cmd.MatchID)
		if matchID == "" || matchID == cur.ID {
			return entity.Plan[Report]{}, &entity.ValidationError{Message: "matchId required and must reference another report"}
		}
		cmd.MatchID = matchID
		next.MatchedEntityID = matchID
	case ActionUnmatch:
		next.MatchedEntityID = ""
		ev = entity.EventUnmatched
	}

	return entity.Plan[Report]{
		Next:    next,
		Keep:    r.Op != entity.OpDelete,
		Request: statemachine.Request(r, to, cmd),
		Event:   ev,
	}, nil
}

func (Domain) Resolve(cur Report, req entity.Request, role entity.Role) (entity.Command, error) {
	a, ok := Machine.Resolve(cur.Status, req.Op, Status(req.Status), role)
	if !ok {
		return entity.Command{}, fmt.Errorf("%w: %s from %q", entity.ErrIneligible, req.Op, cur.Status)
	}
	return entity.Command{Action: string(a), MatchID: req.MatchID, Reason: req.Reason, Notes: req.Notes}, nil
}

func (Domain) Reduce(cur Report, exists bool, ev entity.Event) (Report, entity.Change, error) {
	next, change, err := entity.MergeDelta(cur, exists, ev)
	if err != nil || change != entity.ChangeUpsert {
		return next, change, err
	}
	switch ev.Type {
	case entity.EventMatched:
		next.Status = StatusMatched
	case entity.EventUnmatched:
		next.Status = StatusPending
		next.MatchedEntityID = ""
	}
	return next, change, nil
}

func (Domain) Supersedes(local, incoming string) bool {
	return Machine.Supersedes(Status(local), Status(incoming))
}

func Schema() view.Schema[Report] {
	return view.Schema[Report]{
		Text: func(r Report) []string {
			return []string{r.PetName, r.Species, r.Location, r.Description, string(r.Type), r.OwnerRef}
		},
		Sorts: map[string]view.Compare[Report]{
			"created": view.ByCreated[Report],
			"updated": view.ByUpdated[Report],
			"status":  view.ByStatus[Report],
			"pet":     func(a, b Report) int { return cmp.Compare(strings.ToLower(a.PetName), strings.ToLower(b.PetName)) },
		},
		DefaultSort: "created",
	}
}
