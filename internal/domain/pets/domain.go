package pets

import (
	"cmp"
	"fmt"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
	"pet-admin-sync/internal/sync/view"
)

type Domain struct{}

var _ entity.Domain[Pet] = Domain{}

func (Domain) Kind() entity.Kind { return entity.KindPets }

func (Domain) Declared(status string) bool { return Machine.Declared(Status(status)) }

func (d Domain) Eligible(cur Pet, cmd entity.Command, role entity.Role) bool {
	_, err := d.Plan(cur, cmd, role)
	return err == nil
}

func (Domain) Plan(cur Pet, cmd entity.Command, role entity.Role) (entity.Plan[Pet], error) {
	r, to, err := Machine.Step(cur.Meta, cur.Status, cmd, role)
	if err != nil {
		return entity.Plan[Pet]{}, err
	}
	if !listingGate(cur, r.Action) {
		return entity.Plan[Pet]{}, &entity.StaleEligibilityError{ID: cur.ID, Action: cmd.Action, Status: string(cur.Status)}
	}

	next := cur
	next.Status = to
	next.Meta = statemachine.ApplyOp(next.Meta, r.Op)
	return entity.Plan[Pet]{
		Next:    next,
		Keep:    r.Op != entity.OpDelete,
		Request: statemachine.Request(r, to, cmd),
		Event:   statemachine.EventFor(r.Op),
	}, nil
}

func (Domain) Resolve(cur Pet, req entity.Request, role entity.Role) (entity.Command, error) {
	a, ok := Machine.Resolve(cur.Status, req.Op, Status(req.Status), role)
	if !ok {
		return entity.Command{}, fmt.Errorf("%w: %s from %q", entity.ErrIneligible, req.Op, cur.Status)
	}
	return entity.Command{Action: string(a), Reason: req.Reason, Notes: req.Notes}, nil
}

func (Domain) Reduce(cur Pet, exists bool, ev entity.Event) (Pet, entity.Change, error) {
	return entity.MergeDelta(cur, exists, ev)
}

func (Domain) Supersedes(local, incoming string) bool {
	return Machine.Supersedes(Status(local), Status(incoming))
}

func Schema() view.Schema[Pet] {
	return view.Schema[Pet]{
		Text: func(p Pet) []string {
			return []string{p.Name, string(p.Species), p.Breed, p.OwnerRef, p.Notes}
		},
		Sorts: map[string]view.Compare[Pet]{
			"created": view.ByCreated[Pet],
			"updated": view.ByUpdated[Pet],
			"status":  view.ByStatus[Pet],
			"name":    func(a, b Pet) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
			"fee":     func(a, b Pet) int { return cmp.Compare(a.Fee, b.Fee) },
		},
		DefaultSort: "created",
	}
}
