package users

import (
	"cmp"
	"fmt"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
	"pet-admin-sync/internal/sync/view"
)

type Domain struct{}

var _ entity.Domain[User] = Domain{}

func (Domain) Kind() entity.Kind { return entity.KindUsers }

func (Domain) Declared(status string) bool { return Machine.Declared(Status(status)) }

func (d Domain) Eligible(cur User, cmd entity.Command, role entity.Role) bool {
	_, err := d.Plan(cur, cmd, role)
	return err == nil
}

func (Domain) Plan(cur User, cmd entity.Command, role entity.Role) (entity.Plan[User], error) {
	r, to, err := Machine.Step(cur.Meta, cur.Status, cmd, role)
	if err != nil {
		return entity.Plan[User]{}, err
	}
	next := cur
	next.Status = to
	next.Meta = statemachine.ApplyOp(next.Meta, r.Op)
	return entity.Plan[User]{
		Next:    next,
		Keep:    true,
		Request: statemachine.Request(r, to, cmd),
		Event:   statemachine.EventFor(r.Op),
	}, nil
}

func (Domain) Resolve(cur User, req entity.Request, role entity.Role) (entity.Command, error) {
	a, ok := Machine.Resolve(cur.Status, req.Op, Status(req.Status), role)
	if !ok {
		return entity.Command{}, fmt.Errorf("%w: %s from %q", entity.ErrIneligible, req.Op, cur.Status)
	}
	return entity.Command{Action: string(a), Reason: req.Reason, Notes: req.Notes}, nil
}

func (Domain) Reduce(cur User, exists bool, ev entity.Event) (User, entity.Change, error) {
	next, change, err := entity.MergeDelta(cur, exists, ev)
	if err != nil || change != entity.ChangeUpsert {
		return next, change, err
	}
	if ev.Type == entity.EventArchived {
		next.Status = StatusArchived
	}
	return next, change, nil
}

func (Domain) Supersedes(local, incoming string) bool {
	return Machine.Supersedes(Status(local), Status(incoming))
}

func Schema() view.Schema[User] {
	return view.Schema[User]{
		Text: func(u User) []string {
			return []string{u.Name, u.Email, u.Profession, string(u.Role)}
		},
		Sorts: map[string]view.Compare[User]{
			"name":    func(a, b User) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
			"email":   func(a, b User) int { return cmp.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email)) },
			"created": view.ByCreated[User],
			"status":  view.ByStatus[User],
		},
		DefaultSort: "name",
	}
}
