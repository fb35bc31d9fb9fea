package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crm-imobiliario/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Provider is the external calendar the CRM mirrors visits into
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthToken, error)
	Refresh(ctx context.Context, refreshToken string) (*OAuthToken, error)
	Watch(ctx context.Context, accessToken, channelID, address string) (*Channel, error)
	StopChannel(ctx context.Context, accessToken string, ch Channel) error
	InsertEvent(ctx context.Context, accessToken string, ev Event) (string, error)
	UpdateEvent(ctx context.Context, accessToken, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, accessToken, eventID string) error
	ListEvents(ctx context.Context, accessToken string, since time.Time) ([]Event, error)
}

type GoogleProvider struct {
	OAuth      *oauth2.Config
	CalendarID string
	APIURL     string
	Location   *time.Location
}

func NewGoogleProvider(cfg *config.Config) Provider {
	endpoint := google.Endpoint
	if cfg.Google.TokenURL != "" {
		endpoint.TokenURL = cfg.Google.TokenURL
	}
	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &GoogleProvider{
		OAuth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes:       []string{gcal.CalendarScope, gcal.CalendarEventsScope},
			Endpoint:     endpoint,
		},
		CalendarID: cfg.Google.CalendarID,
		APIURL:     cfg.Google.APIURL,
		Location:   loc,
	}
}

func (p *GoogleProvider) AuthURL(state string) string {
	return p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*OAuthToken, error) {
	tok, err := p.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return fromOAuth(tok), nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*OAuthToken, error) {
	tok, err := p.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fromOAuth(tok), nil
}

func fromOAuth(tok *oauth2.Token) *OAuthToken {
	return &OAuthToken{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}
}

func (p *GoogleProvider) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.APIURL != "" {
		opts = append(opts, option.WithEndpoint(p.APIURL))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

func (p *GoogleProvider) Watch(ctx context.Context, accessToken, channelID, address string) (*Channel, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	ch, err := svc.Events.Watch(p.CalendarID, &gcal.Channel{Id: channelID, Type: "web_hook", Address: address}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := &Channel{ID: ch.Id, ResourceID: ch.ResourceId}
	if ch.Expiration > 0 {
		out.Expiration = time.UnixMilli(ch.Expiration).UTC()
	}
	return out, nil
}

func (p *GoogleProvider) StopChannel(ctx context.Context, accessToken string, ch Channel) error {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	return svc.Channels.Stop(&gcal.Channel{Id: ch.ID, ResourceId: ch.ResourceID}).Context(ctx).Do()
}

func (p *GoogleProvider) InsertEvent(ctx context.Context, accessToken string, ev Event) (string, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(p.CalendarID, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// UpdateEvent replaces the whole event
func (p *GoogleProvider) UpdateEvent(ctx context.Context, accessToken, eventID string, ev Event) error {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	_, err = svc.Events.Update(p.CalendarID, eventID, toGoogle(ev)).Context(ctx).Do()
	return err
}

// DeleteEvent treats an event that is already gone as deleted
func (p *GoogleProvider) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	err = svc.Events.Delete(p.CalendarID, eventID).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	return err
}

func (p *GoogleProvider) ListEvents(ctx context.Context, accessToken string, since time.Time) ([]Event, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	var out []Event
	call := svc.Events.List(p.CalendarID).
		TimeMin(since.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(true).
		OrderBy("startTime")
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			out = append(out, p.fromGoogle(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toGoogle(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: ev.TimeZone},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: ev.TimeZone},
		Status:      ev.Status,
	}
}

func (p *GoogleProvider) fromGoogle(item *gcal.Event) Event {
	ev := Event{ID: item.Id, Summary: item.Summary, Description: item.Description, Status: item.Status}
	ev.Start, ev.TimeZone = p.parseDateTime(item.Start)
	ev.End, _ = p.parseDateTime(item.End)
	return ev
}

// parseDateTime accepts timed and all-day values; unparseable input yields
// the zero time
func (p *GoogleProvider) parseDateTime(dt *gcal.EventDateTime) (time.Time, string) {
	if dt == nil {
		return time.Time{}, ""
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, dt.TimeZone
		}
		return t, dt.TimeZone
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, p.Location)
		if err != nil {
			return time.Time{}, dt.TimeZone
		}
		return t, dt.TimeZone
	}
	return time.Time{}, dt.TimeZone
}
