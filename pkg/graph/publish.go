package graph

import (
	"context"
	"fmt"
	"net/url"
)

// PublishFacebook posts a message to a page feed and returns the platform
// post id. imageURL, when set, must be an absolute URL the platform can
// fetch; it is attached as the post's preview picture.
func (c *Client) PublishFacebook(ctx context.Context, pageID, pageToken, message, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", pageToken)
	if imageURL != "" {
		form.Set("picture", imageURL)
	}
	return c.postForm(ctx, c.baseURL+"/"+pageID+"/feed", form)
}

// PublishInstagram publishes a caption and image through the two step
// container flow and returns the platform post id.
func (c *Client) PublishInstagram(ctx context.Context, accountID, pageToken, caption, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("caption", caption)
	form.Set("access_token", pageToken)
	if imageURL != "" {
		form.Set("image_url", imageURL)
	}
	creationID, err := c.postForm(ctx, c.baseURL+"/"+accountID+"/media", form)
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}

	publish := url.Values{}
	publish.Set("creation_id", creationID)
	publish.Set("access_token", pageToken)
	id, err := c.postForm(ctx, c.baseURL+"/"+accountID+"/media_publish", publish)
	if err != nil {
		return "", fmt.Errorf("publish media container: %w", err)
	}
	return id, nil
}
