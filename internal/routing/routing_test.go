package routing

import (
	"testing"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

const (
	analyticsManagers = "ana-mari.pita@adiglobal.com; john.larosa@adiglobal.com"
	snapManager       = "dale.slaughenhaupt@adiglobal.com"
)

func TestDefaultRouting(t *testing.T) {
	rules := Default()
	tests := []struct {
		function string
		manager  string
		region   types.Region
		segment  types.BusinessSegment
	}{
		{"Branch", analyticsManagers, types.RegionNA, types.SegmentBusinessSupport},
		{"RAS/NAM", analyticsManagers, types.RegionNA, types.SegmentBusinessSupport},
		{"Snap Sales", snapManager, types.RegionNA, types.SegmentSnapOne},
		{"Snap Manufacturing & Quality", snapManager, types.RegionNA, types.SegmentSnapOne},
		{"EMEA Finance", "", types.RegionEMEA, types.SegmentEMEA},
		{"emea ops", "", types.RegionEMEA, types.SegmentEMEA},
		{"NA Logistics", "", types.RegionNA, types.SegmentBusinessSupport},
		{"Marketing", "", types.RegionNA, types.SegmentBusinessSupport},
		{"", "", types.RegionNA, types.SegmentBusinessSupport},
		// Matching is exact: case changes fall through to the defaults.
		{"snap sales", "", types.RegionNA, types.SegmentBusinessSupport},
	}
	for _, tt := range tests {
		t.Run(tt.function, func(t *testing.T) {
			d := rules.Route(tt.function)
			if d.DataManager != tt.manager {
				t.Errorf("DataManager = %q, want %q", d.DataManager, tt.manager)
			}
			if d.Region != tt.region || d.Segment != tt.segment {
				t.Errorf("placement = (%s, %s), want (%s, %s)", d.Region, d.Segment, tt.region, tt.segment)
			}
		})
	}
}

func TestDefaultCoversEveryFunction(t *testing.T) {
	rules := Default()
	for _, fn := range types.Functions {
		if rules.DataManager(fn) == "" {
			t.Errorf("function %q has no data manager", fn)
		}
	}
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := Default()
	bad.Groups[0].Name = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unnamed group")
	}

	bad = Default()
	bad.Prefixes[0].Placement.Region = "APAC"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown region")
	}

	bad = Default()
	bad.Groups = append(bad.Groups, Group{Name: "snap", Functions: []string{"x"}})
	if err := bad.Validate(); err == nil {
		t.Error("expected error for duplicate group")
	}
}

func TestRouterSwap(t *testing.T) {
	r := NewRouter(nil)
	if got := r.Route("Credit").DataManager; got != analyticsManagers {
		t.Fatalf("DataManager = %q", got)
	}
	r.Swap(&Rules{Default: Placement{Region: types.RegionEMEA, Segment: types.SegmentEMEA}})
	d := r.Route("Credit")
	if d.DataManager != "" || d.Region != types.RegionEMEA {
		t.Errorf("swap not applied: %+v", d)
	}
}
