package models

import "testing"

func TestSearchContextInternational(t *testing.T) {
	tests := []struct {
		name   string
		search SearchContext
		want   bool
	}{
		{
			name:   "flight to jakarta is domestic",
			search: SearchContext{Category: CategoryFlight, Origin: "SIN", Destination: "CGK"},
			want:   false,
		},
		{
			name:   "flight between indonesian airports is domestic",
			search: SearchContext{Category: CategoryFlight, Origin: "CGK", Destination: "DPS"},
			want:   false,
		},
		{
			name:   "flight to tokyo is international",
			search: SearchContext{Category: CategoryFlight, Origin: "CGK", Destination: "NRT"},
			want:   true,
		},
		{
			name:   "flight to unknown airport is international",
			search: SearchContext{Category: CategoryFlight, Origin: "CGK", Destination: "XYZ"},
			want:   true,
		},
		{
			name:   "hotel is never international",
			search: SearchContext{Category: CategoryHotel, Destination: "NRT"},
			want:   false,
		},
		{
			name:   "attraction is never international",
			search: SearchContext{Category: CategoryAttraction, Destination: "SIN"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.search.International(); got != tt.want {
				t.Errorf("International() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTravelerCountNeverBelowOne(t *testing.T) {
	tests := []struct {
		travelers int
		want      int
	}{
		{travelers: -3, want: 1},
		{travelers: 0, want: 1},
		{travelers: 1, want: 1},
		{travelers: 4, want: 4},
	}

	for _, tt := range tests {
		s := SearchContext{Travelers: tt.travelers}
		if got := s.TravelerCount(); got != tt.want {
			t.Errorf("TravelerCount() with %d travelers = %d; want %d", tt.travelers, got, tt.want)
		}
	}
}

func TestIsDomesticAirport(t *testing.T) {
	if !IsDomesticAirport("CGK") {
		t.Error("CGK must be in the domestic allow-list")
	}
	if IsDomesticAirport("SIN") {
		t.Error("SIN must not be in the domestic allow-list")
	}
	if IsDomesticAirport("cgk") {
		t.Error("codes are matched case-sensitively")
	}
}
