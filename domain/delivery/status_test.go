package delivery

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to assigned", StatusPending, StatusAssigned, true},
		{"assigned to picked up", StatusAssigned, StatusPickedUp, true},
		{"picked up to in transit", StatusPickedUp, StatusInTransit, true},
		{"in transit to delivered", StatusInTransit, StatusDelivered, true},
		{"in transit to cancelled", StatusInTransit, StatusCancelled, true},
		{"pending skips to delivered", StatusPending, StatusDelivered, false},
		{"delivered is terminal", StatusDelivered, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"backwards", StatusInTransit, StatusAssigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDelivery_CanAccess(t *testing.T) {
	d := &Delivery{ID: "d1", SenderID: "u1", AgentID: "a1"}

	tests := []struct {
		name     string
		identity Identity
		read     bool
		write    bool
	}{
		{"sender", Identity{UserID: "u1", Role: RoleCustomer}, true, false},
		{"assigned agent", Identity{UserID: "a1", Role: RoleAgent}, true, true},
		{"other agent", Identity{UserID: "a2", Role: RoleAgent}, false, false},
		{"stranger", Identity{UserID: "u9", Role: RoleCustomer}, false, false},
		{"admin", Identity{UserID: "root", Role: RoleAdmin}, true, true},
		{"anonymous", Identity{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.CanAccess(tt.identity); got != tt.read {
				t.Errorf("CanAccess() = %v, want %v", got, tt.read)
			}
			if got := d.CanWriteLocation(tt.identity); got != tt.write {
				t.Errorf("CanWriteLocation() = %v, want %v", got, tt.write)
			}
		})
	}
}

func TestDelivery_CanAccessUnassigned(t *testing.T) {
	d := &Delivery{ID: "d1", SenderID: "u1"}
	if d.CanAccess(Identity{UserID: "", Role: RoleAgent}) {
		t.Error("empty user id must not match an empty agent id")
	}
	if d.CanWriteLocation(Identity{UserID: "a1", Role: RoleAgent}) {
		t.Error("no agent may write locations before assignment")
	}
}
