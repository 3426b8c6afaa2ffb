package learner

import "testing"

func TestResolveEligibility(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		company *Company
		want    Eligibility
	}{
		{"no company on profile", Profile{}, nil, EligibilityNotFound},
		{"company id set but company missing", Profile{CompanyID: "co-1"}, nil, EligibilityNotFound},
		{"company without training", Profile{CompanyID: "co-1"},
			&Company{ID: "co-1", Status: "validated"}, EligibilityPending},
		{"company pending validation", Profile{CompanyID: "co-1"},
			&Company{ID: "co-1", Status: "pending", TrainingID: "tr-1"}, EligibilityPending},
		{"validated with training", Profile{CompanyID: "co-1"},
			&Company{ID: "co-1", Status: "validated", TrainingID: "tr-1"}, EligibilityValid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ResolveEligibility(c.profile, c.company); got != c.want {
				t.Fatalf("got %s, want %s", got, c.want)
			}
		})
	}
}
