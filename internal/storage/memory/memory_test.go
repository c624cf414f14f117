package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

func setupTestMemory(t *testing.T) *MemoryStorage {
	t.Helper()
	store := New()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTicket(fn string, region types.Region, segment types.BusinessSegment) *types.Ticket {
	return &types.Ticket{
		FunctionName:    fn,
		RequestorEmail:  "jane.doe@example.com",
		RequestType:     types.RequestReport,
		RequestTitle:    "Title " + fn,
		RequestName:     "Body",
		Region:          region,
		BusinessSegment: segment,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := setupTestMemory(t)
	ctx := context.Background()

	tk := newTicket("Credit", types.RegionNA, types.SegmentBusinessSupport)
	tk.Upload = "UEsDBA=="
	tk.Download = types.StringPtr(types.DownloadGlyph)
	if err := store.CreateTicket(ctx, tk, "tester"); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if tk.ID != 1 {
		t.Fatalf("ID = %d, want 1", tk.ID)
	}

	got, err := store.GetTicket(ctx, tk.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.Upload != "UEsDBA==" || got.ProjectStatus != types.StatusNotAssigned || got.Assigned != "N" {
		t.Errorf("unexpected ticket: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.RequestTitle = "changed"
	again, _ := store.GetTicket(ctx, tk.ID)
	if again.RequestTitle != "Title Credit" {
		t.Errorf("store shares ticket memory with callers")
	}

	if _, err := store.GetTicket(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTicket(42) error = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	store := setupTestMemory(t)
	tk := newTicket("Credit", types.RegionNA, types.SegmentBusinessSupport)
	tk.RequestTitle = ""
	if err := store.CreateTicket(context.Background(), tk, "tester"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestListTicketsFilterAndOrder(t *testing.T) {
	store := setupTestMemory(t)
	ctx := context.Background()

	seed := []*types.Ticket{
		newTicket("Credit", types.RegionNA, types.SegmentBusinessSupport),
		newTicket("Snap Sales", types.RegionNA, types.SegmentSnapOne),
		newTicket("Other", types.RegionEMEA, types.SegmentEMEA),
	}
	seed[0].Upload = "AAAA"
	seed[0].Download = types.StringPtr(types.DownloadGlyph)
	for _, tk := range seed {
		if err := store.CreateTicket(ctx, tk, "tester"); err != nil {
			t.Fatalf("CreateTicket: %v", err)
		}
	}

	all, err := store.ListTickets(ctx, types.TicketFilter{Region: "All"})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, tk := range all {
		if tk.ID != int64(i+1) {
			t.Errorf("row %d has ID %d", i, tk.ID)
		}
		if tk.Upload != "" {
			t.Errorf("row %d carries its upload", i)
		}
	}

	na, _ := store.ListTickets(ctx, types.TicketFilter{Region: "NA"})
	if len(na) != 2 {
		t.Errorf("NA rows = %d, want 2", len(na))
	}
	snap, _ := store.ListTickets(ctx, types.TicketFilter{Region: "NA", BusinessSegment: "Snap One"})
	if len(snap) != 1 || snap[0].FunctionName != "Snap Sales" {
		t.Errorf("Snap One rows = %+v", snap)
	}
}

func TestUpdateCellRecordsEvents(t *testing.T) {
	store := setupTestMemory(t)
	ctx := context.Background()
	tk := newTicket("Credit", types.RegionNA, types.SegmentBusinessSupport)
	if err := store.CreateTicket(ctx, tk, "tester"); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if err := store.UpdateCell(ctx, tk.ID, types.ColAssignedName, types.StringPtr("Pat"), "pm"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if err := store.UpdateCell(ctx, tk.ID, types.ColETC, types.StringPtr(""), "pm"); err != nil {
		t.Fatalf("UpdateCell etc: %v", err)
	}
	got, _ := store.GetTicket(ctx, tk.ID)
	if types.Deref(got.AssignedName) != "Pat" {
		t.Errorf("assigned_name = %v", got.AssignedName)
	}
	if got.ETC != nil {
		t.Errorf("empty date should be stored as NULL, got %q", *got.ETC)
	}

	events, _ := store.GetEvents(ctx, tk.ID, 0)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Column != types.ColETC || events[2].EventType != types.EventCreated {
		t.Errorf("events not newest-first: %+v", events)
	}
	limited, _ := store.GetEvents(ctx, tk.ID, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}

	if err := store.UpdateCell(ctx, tk.ID, types.ColRequestName, types.StringPtr("x"), "pm"); !errors.Is(err, storage.ErrInvalidColumn) {
		t.Errorf("read-only write error = %v, want ErrInvalidColumn", err)
	}
	if err := store.UpdateCell(ctx, 99, types.ColComments, nil, "pm"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing ticket error = %v, want ErrNotFound", err)
	}
}

func TestStatistics(t *testing.T) {
	store := setupTestMemory(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tk := newTicket("Credit", types.RegionNA, types.SegmentBusinessSupport)
		if err := store.CreateTicket(ctx, tk, "tester"); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.UpdateCell(ctx, 2, types.ColProjectStatus, types.StringPtr("Completed"), "pm"); err != nil {
		t.Fatal(err)
	}
	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTickets != 3 || stats.ByStatus[types.StatusCompleted] != 1 || stats.ByStatus[types.StatusNotAssigned] != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := setupTestMemory(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.CreateTicket(ctx, newTicket("DX", types.RegionNA, types.SegmentBusinessSupport), "tester")
		}()
	}
	wg.Wait()
	all, _ := store.ListTickets(ctx, types.TicketFilter{})
	if len(all) != 20 {
		t.Fatalf("len = %d, want 20", len(all))
	}
}
