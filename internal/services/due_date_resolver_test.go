package services

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
)

func TestResolveDueDateNoMatch(t *testing.T) {
	overrides := []gradebook.DeadlineOverride{
		{SectionID: "sec-a", DueAt: calcBase},
		{UserIDs: []string{"other-user"}, DueAt: calcBase},
	}

	if due := ResolveDueDate("u1", []string{"sec-b"}, overrides); due != nil {
		t.Fatalf("due = %v, want nil for non-matching overrides", due)
	}
	if due := ResolveDueDate("u1", nil, nil); due != nil {
		t.Fatalf("due = %v, want nil with no overrides", due)
	}
}

func TestResolveDueDateSectionMembership(t *testing.T) {
	overrides := []gradebook.DeadlineOverride{
		{SectionID: "sec-a", DueAt: calcBase},
	}

	due := ResolveDueDate("u1", []string{"sec-a", "sec-b"}, overrides)
	if due == nil || !due.Equal(calcBase) {
		t.Fatalf("due = %v, want %v", due, calcBase)
	}
}

func TestResolveDueDateAdHocUserList(t *testing.T) {
	overrides := []gradebook.DeadlineOverride{
		{UserIDs: []string{"u1", "u2"}, DueAt: calcBase},
	}

	if due := ResolveDueDate("u2", nil, overrides); due == nil || !due.Equal(calcBase) {
		t.Fatalf("due = %v, want %v", due, calcBase)
	}
	if due := ResolveDueDate("u3", nil, overrides); due != nil {
		t.Fatalf("due = %v, want nil for unlisted user", due)
	}
}

func TestResolveDueDateLatestWins(t *testing.T) {
	early := calcBase
	late := calcBase.Add(72 * time.Hour)

	overrides := []gradebook.DeadlineOverride{
		{SectionID: "sec-a", DueAt: late},
		{UserIDs: []string{"u1"}, DueAt: early},
	}

	due := ResolveDueDate("u1", []string{"sec-a"}, overrides)
	if due == nil || !due.Equal(late) {
		t.Fatalf("due = %v, want latest %v", due, late)
	}
}
