package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eclipse/internal/httputil"
	"eclipse/internal/model"
)

// ChannelHandler serves channel pages and the subscribe button.
type ChannelHandler struct {
	channels   Channels
	subscriber Subscriber
}

func NewChannelHandler(channels Channels, subscriber Subscriber) *ChannelHandler {
	return &ChannelHandler{channels: channels, subscriber: subscriber}
}

type channelResponse struct {
	Channel          model.Channel `json:"channel"`
	SubscribersLabel string        `json:"subscribers_label"`
	Videos           []model.Video `json:"videos"`
	Posts            []PostView    `json:"posts"`
}

type subscribeResponse struct {
	Subscribed       bool   `json:"subscribed"`
	SubscriberCount  int    `json:"subscriber_count"`
	SubscribersLabel string `json:"subscribers_label"`
}

// Get handles GET /channels/{name}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	channel := h.channels.Project(name)
	httputil.WriteJSON(w, http.StatusOK, channelResponse{
		Channel:          channel,
		SubscribersLabel: model.FormatCount(channel.SubscriberCount),
		Videos:           h.channels.ChannelVideos(name),
		Posts:            newPostViews(h.channels.ChannelPosts(name)),
	})
}

// Subscribe handles POST /channels/{name}/subscribe
// Toggles: a second call unsubscribes.
func (h *ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	subscribed, err := h.subscriber.Toggle(r.Context(), name)
	if err != nil {
		writeServiceError(w, "ToggleSubscription", err, "Failed to update subscription")
		return
	}
	count := h.channels.Project(name).SubscriberCount
	httputil.WriteJSON(w, http.StatusOK, subscribeResponse{
		Subscribed:       subscribed,
		SubscriberCount:  count,
		SubscribersLabel: model.FormatCount(count),
	})
}
