package skiff

import "context"

// CategoryCreater creates new sidebar categories.
type CategoryCreater interface {
	CreateCategory(ctx context.Context, teamID, displayName string, channelIDs []string) (*ChannelCategory, error)
}

// CategoryUpdater changes properties of an existing category.
type CategoryUpdater interface {
	RenameCategory(ctx context.Context, categoryID, displayName string) error
	SetCategorySorting(ctx context.Context, categoryID string, sorting CategorySorting) error
}

// CategoryDeleter removes custom categories, redistributing their
// channels back to the matching default categories.
type CategoryDeleter interface {
	DeleteCategory(ctx context.Context, categoryID string) error
}

// ChannelOrganizer moves channels between categories and categories
// within a team's sidebar.
type ChannelOrganizer interface {
	AddChannelToCategory(ctx context.Context, categoryID, channelID string) error
	MoveChannelToCategory(ctx context.Context, categoryID, channelID string, index int) error
	MoveCategory(ctx context.Context, teamID, categoryID string, index int) error
}
