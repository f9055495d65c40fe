package services

import "context"

// AddChannelToCategory places the channel first in the target category
// without an explicit position, so the category's sorting mode is left
// alone. The channel is still stolen from its previous category and the
// favorite preference still tracks Favorites membership.
func (o *organizer) AddChannelToCategory(ctx context.Context, categoryID, channelID string) error {
	return o.moveChannel(ctx, categoryID, channelID, 0, false)
}
