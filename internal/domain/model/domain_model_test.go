//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"sitfit-api/internal/domain"
)

// --- UserCredits Tests ---

func TestNewUserCredits(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should start with the free allotment", func(t *testing.T) {
		c, err := NewUserCredits("user-1", now)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if c.Credits != FreeAllotment {
			t.Errorf("expected %d credits, but got %d", FreeAllotment, c.Credits)
		}
		if c.IsPremium || c.SubscriptionType != SubscriptionFree {
			t.Errorf("expected a free record, but got premium=%v type=%s", c.IsPremium, c.SubscriptionType)
		}
		if !c.LastResetDate.Equal(now) || c.TotalUsed != 0 {
			t.Errorf("unexpected reset date or usage: %v / %d", c.LastResetDate, c.TotalUsed)
		}
	})

	t.Run("should fail with empty user id", func(t *testing.T) {
		_, err := NewUserCredits("", now)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, but got %v", err)
		}
	})
}

func TestUserCredits_RolloverDue(t *testing.T) {
	reset := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &UserCredits{UserID: "u", Credits: 0, SubscriptionType: SubscriptionFree, LastResetDate: reset}

	if c.RolloverDue(reset.Add(29*24*time.Hour + 23*time.Hour)) {
		t.Error("expected no rollover before 30 days")
	}
	if !c.RolloverDue(reset.Add(30 * 24 * time.Hour)) {
		t.Error("expected rollover at exactly 30 days")
	}

	c.IsPremium = true
	if c.RolloverDue(reset.Add(90 * 24 * time.Hour)) {
		t.Error("premium records never roll over")
	}
}

func TestUserCredits_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	c := &UserCredits{IsPremium: true, SubscriptionType: SubscriptionPremium, SubscriptionEndDate: &end, Credits: UnlimitedCredits}

	if c.Expired(now) || !c.Active(now) {
		t.Error("expected active subscription before the end date")
	}
	if !c.Expired(end.Add(time.Second)) || c.Active(end.Add(time.Second)) {
		t.Error("expected expired subscription after the end date")
	}

	free := &UserCredits{Credits: 1}
	if free.Expired(now) {
		t.Error("a free record cannot expire")
	}
}

func TestUserCredits_CanSpend(t *testing.T) {
	if (&UserCredits{Credits: 0}).CanSpend() {
		t.Error("expected zero balance to be rejected")
	}
	if !(&UserCredits{Credits: 1}).CanSpend() {
		t.Error("expected positive balance to be accepted")
	}
	if !(&UserCredits{IsPremium: true, Credits: 0}).CanSpend() {
		t.Error("expected premium to be unlimited regardless of balance")
	}
}

// --- Plan Tests ---

func TestPlan_EndDate(t *testing.T) {
	from := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	if got := PlanMonthly.EndDate(from); !got.Equal(time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly end date wrong: %v", got)
	}
	if got := PlanYearly.EndDate(from); !got.Equal(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("yearly end date wrong: %v", got)
	}
}

func TestParsePlan(t *testing.T) {
	for _, s := range []string{"monthly", "yearly"} {
		if _, err := ParsePlan(s); err != nil {
			t.Errorf("expected %q to parse, got %v", s, err)
		}
	}
	for _, s := range []string{"", "weekly", "MONTHLY"} {
		if _, err := ParsePlan(s); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected %q to be rejected, got %v", s, err)
		}
	}
}

func TestParseGarmentType(t *testing.T) {
	g, err := ParseGarmentType("")
	if err != nil || g != GarmentFullBody {
		t.Errorf("expected empty garment type to default to full_body, got %q %v", g, err)
	}
	if _, err := ParseGarmentType("top"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected unknown garment type to be rejected, got %v", err)
	}
}

// --- Outfit suggestion Tests ---

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestOutfitFor(t *testing.T) {
	t.Run("should pick the layer count from the temperature band", func(t *testing.T) {
		cases := []struct {
			temp   float64
			layers int
			item   string
		}{
			{-5, 4, "Heavy winter coat"},
			{0, 3, "Heavy coat"},
			{12, 2, "Jacket"},
			{17, 2, "Light jacket or cardigan"},
			{22, 1, "Light dress"},
			{27, 1, "Summer dress"},
			{35, 1, "Tank top"},
		}
		for _, tc := range cases {
			s := OutfitFor(Weather{Temp: tc.temp, Condition: "Clouds"})
			if s.Layers != tc.layers || !contains(s.Clothing, tc.item) {
				t.Errorf("%v°C: expected %d layers with %q, got %+v", tc.temp, tc.layers, tc.item, s)
			}
			if len(s.Tips) != 1 {
				t.Errorf("%v°C: expected only the band tip, got %v", tc.temp, s.Tips)
			}
		}
	})

	t.Run("should add rain gear for wet conditions", func(t *testing.T) {
		for _, cond := range []string{"Rain", "Drizzle", "Thunderstorm"} {
			s := OutfitFor(Weather{Temp: 12, Condition: cond})
			if !contains(s.Accessories, "Umbrella") || !contains(s.Accessories, "Rain boots") || len(s.Tips) != 2 {
				t.Errorf("%s: expected rain gear and a tip, got %+v", cond, s)
			}
		}
	})

	t.Run("should add wind humidity and sun advice", func(t *testing.T) {
		s := OutfitFor(Weather{Temp: 28, Condition: "Clear", WindSpeed: 25, Humidity: 85})
		if !contains(s.Accessories, "Hair tie or clips") || !contains(s.Accessories, "Sunscreen") {
			t.Errorf("expected wind and sun accessories, got %v", s.Accessories)
		}
		n := 0
		for _, a := range s.Accessories {
			if a == "Sunglasses" {
				n++
			}
		}
		if n != 1 {
			t.Errorf("expected sunglasses once, got %v", s.Accessories)
		}
		if len(s.Tips) != 4 {
			t.Errorf("expected band, wind, humidity and sun tips, got %v", s.Tips)
		}
	})

	t.Run("should not flag sun on a cool clear day", func(t *testing.T) {
		s := OutfitFor(Weather{Temp: 14, Condition: "Clear"})
		if contains(s.Accessories, "Sunscreen") {
			t.Errorf("unexpected sun gear: %v", s.Accessories)
		}
	})
}
