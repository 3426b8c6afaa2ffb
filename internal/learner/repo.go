package learner

import "context"

type ListOpts struct {
	TrainingID string
	CompanyID  string
	Limit      int
	Offset     int
}

type Store interface {
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (Profile, error)
	PutProfile(ctx context.Context, p Profile) error
	UpdateProfile(ctx context.Context, id string, patch Patch) error
	ListProfiles(ctx context.Context, opts ListOpts) ([]Profile, error)

	GetCompany(ctx context.Context, id string) (Company, error)
	PutCompany(ctx context.Context, c Company) error
	SetCompanyStatus(ctx context.Context, id, status string) error

	GetTraining(ctx context.Context, id string) (Training, error)
	PutTraining(ctx context.Context, t Training) error
}
