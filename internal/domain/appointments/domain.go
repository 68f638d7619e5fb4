package appointments

import (
	"cmp"
	"fmt"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
	"pet-admin-sync/internal/sync/view"
)

// Domain implementa entity.Domain[Appointment].
type Domain struct{}

var _ entity.Domain[Appointment] = Domain{}

func (Domain) Kind() entity.Kind { return entity.KindAppointments }

func (Domain) Declared(status string) bool { return Machine.Declared(Status(status)) }

func (d Domain) Eligible(cur Appointment, cmd entity.Command, role entity.Role) bool {
	_, err := d.Plan(cur, cmd, role)
	return err == nil
}

func (Domain) Plan(cur Appointment, cmd entity.Command, role entity.Role) (entity.Plan[Appointment], error) {
	r, to, err := Machine.Step(cur.Meta, cur.Status, cmd, role)
	if err != nil {
		return entity.Plan[Appointment]{}, err
	}

	next := cur
	next.Status = to
	next.Meta = statemachine.ApplyOp(next.Meta, r.Op)
	if r.Op == entity.OpStatus {
		if s := strings.TrimSpace(cmd.Reason); s != "" {
			next.Reason = s
		}
		if s := strings.TrimSpace(cmd.Notes); s != "" {
			next.Notes = s
		}
	}

	return entity.Plan[Appointment]{
		Next:    next,
		Keep:    true,
		Request: statemachine.Request(r, to, cmd),
		Event:   statemachine.EventFor(r.Op),
	}, nil
}

func (Domain) Resolve(cur Appointment, req entity.Request, role entity.Role) (entity.Command, error) {
	a, ok := Machine.Resolve(cur.Status, req.Op, Status(req.Status), role)
	if !ok {
		return entity.Command{}, fmt.Errorf("%w: %s from %q", entity.ErrIneligible, req.Op, cur.Status)
	}
	cmd := entity.Command{Action: string(a), Reason: req.Reason, Notes: req.Notes}
	if a == ActionOverride {
		cmd.Target = req.Status
	}
	return cmd, nil
}

func (Domain) Reduce(cur Appointment, exists bool, ev entity.Event) (Appointment, entity.Change, error) {
	return entity.MergeDelta(cur, exists, ev)
}

func (Domain) Supersedes(local, incoming string) bool {
	return Machine.Supersedes(Status(local), Status(incoming))
}

// Schema: orden por defecto fecha asc y, a igual fecha, hora asc (lexicográfico).
func Schema() view.Schema[Appointment] {
	return view.Schema[Appointment]{
		Text: func(a Appointment) []string {
			return []string{a.PetName, a.Service, a.ClientRef, a.OwnerRef, a.Notes}
		},
		Sorts: map[string]view.Compare[Appointment]{
			"date": func(a, b Appointment) int {
				if c := cmp.Compare(a.Date, b.Date); c != 0 {
					return c
				}
				return cmp.Compare(a.Time, b.Time)
			},
			"pet":     func(a, b Appointment) int { return cmp.Compare(strings.ToLower(a.PetName), strings.ToLower(b.PetName)) },
			"status":  view.ByStatus[Appointment],
			"updated": view.ByUpdated[Appointment],
		},
		DefaultSort: "date",
	}
}
