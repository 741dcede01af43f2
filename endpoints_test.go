package nsgifts

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func okRoute(w http.ResponseWriter, r *http.Request, hit int) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func TestEndpoints_PathsAndBodies(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(c *Client) (*Response, error)
		body map[string]any
	}{
		{"all services", PathAllServices, func(c *Client) (*Response, error) {
			return c.GetAllServices(context.Background())
		}, nil},
		{"categories", PathCategories, func(c *Client) (*Response, error) {
			return c.GetCategories(context.Background())
		}, nil},
		{"services by category", PathServicesByCategory, func(c *Client) (*Response, error) {
			return c.GetServicesByCategory(context.Background(), 7)
		}, map[string]any{"category_id": float64(7)}},
		{"pay order", PathPayOrder, func(c *Client) (*Response, error) {
			return c.PayOrder(context.Background(), "order-1")
		}, map[string]any{"custom_id": "order-1"}},
		{"order info", PathOrderInfo, func(c *Client) (*Response, error) {
			return c.GetOrderInfo(context.Background(), "order-1")
		}, map[string]any{"custom_id": "order-1"}},
		{"balance", PathCheckBalance, func(c *Client) (*Response, error) {
			return c.CheckBalance(context.Background())
		}, nil},
		{"user info", PathUserInfo, func(c *Client) (*Response, error) {
			return c.GetUserInfo(context.Background())
		}, nil},
		{"steam amount", PathSteamAmount, func(c *Client) (*Response, error) {
			return c.CalculateSteamAmount(context.Background(), 500)
		}, map[string]any{"amount": float64(500)}},
		{"steam currency rate", PathSteamCurrencyRate, func(c *Client) (*Response, error) {
			return c.GetSteamCurrencyRate(context.Background())
		}, nil},
		{"steam gift calculate", PathSteamGiftCalculate, func(c *Client) (*Response, error) {
			return c.CalculateSteamGift(context.Background(), 1234, RegionKZ)
		}, map[string]any{"sub_id": float64(1234), "region": "kz"}},
		{"steam gift order", PathSteamGiftCreateOrder, func(c *Client) (*Response, error) {
			return c.CreateSteamGiftOrder(context.Background(), SteamGiftOrderParams{
				FriendLink: "https://s.team/p/abc",
				SubID:      1234,
				Region:     RegionRU,
				GiftName:   "Happy birthday",
			})
		}, map[string]any{"friendLink": "https://s.team/p/abc", "sub_id": float64(1234), "region": "ru", "giftName": "Happy birthday"}},
		{"steam gift pay", PathSteamGiftPayOrder, func(c *Client) (*Response, error) {
			return c.PaySteamGiftOrder(context.Background(), "gift-1")
		}, map[string]any{"custom_id": "gift-1"}},
		{"steam package price", PathSteamPackagePrice, func(c *Client) (*Response, error) {
			return c.GetSteamPackagePrice(context.Background(), 99)
		}, map[string]any{"package_id": float64(99)}},
		{"whitelist add", PathWhitelistAdd, func(c *Client) (*Response, error) {
			return c.AddIPToWhitelist(context.Background(), "203.0.113.7")
		}, map[string]any{"ip": "203.0.113.7"}},
		{"whitelist remove", PathWhitelistRemove, func(c *Client) (*Response, error) {
			return c.RemoveIPFromWhitelist(context.Background(), "2001:db8::1")
		}, map[string]any{"ip": "2001:db8::1"}},
		{"whitelist list", PathWhitelistList, func(c *Client) (*Response, error) {
			return c.ListWhitelistIPs(context.Background())
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t)
			srv.handle(tt.path, okRoute)
			client, _ := newTestClient(t, srv)

			resp, err := tt.call(client)
			require.NoError(t, err)
			require.JSONEq(t, `{"ok":true}`, resp.String())

			reqs := srv.requestsTo(tt.path)
			require.Len(t, reqs, 1)
			require.Equal(t, "Bearer tok-1", reqs[0].header.Get("Authorization"))
			require.Equal(t, tt.body, reqs[0].body)
		})
	}
}

func TestCreateOrder_GeneratesCustomIDAsDedupKey(t *testing.T) {
	srv := newAPIServer(t)
	srv.handle(PathCreateOrder, func(w http.ResponseWriter, r *http.Request, hit int) {
		if hit == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "created"})
	})
	client, _ := newTestClient(t, srv)

	_, customID, err := client.CreateOrder(context.Background(), CreateOrderParams{ServiceID: 3, Quantity: 1.5})
	require.NoError(t, err)
	_, err = uuid.Parse(customID)
	require.NoError(t, err)

	reqs := srv.requestsTo(PathCreateOrder)
	require.Len(t, reqs, 2, "a keyed order is retried")
	for _, r := range reqs {
		require.Equal(t, customID, r.header.Get("Idempotency-Key"))
		require.Equal(t, customID, r.body["custom_id"])
		require.Equal(t, float64(3), r.body["service_id"])
		require.Equal(t, 1.5, r.body["quantity"])
		require.NotContains(t, r.body, "data")
	}
}

func TestCreateOrder_KeepsCallerCustomID(t *testing.T) {
	srv := newAPIServer(t)
	srv.handle(PathCreateOrder, okRoute)
	client, _ := newTestClient(t, srv)

	_, customID, err := client.CreateOrder(context.Background(), CreateOrderParams{
		ServiceID: 3,
		Quantity:  1,
		CustomID:  "my-order",
		Data:      "player#42",
	})
	require.NoError(t, err)
	require.Equal(t, "my-order", customID)

	r := srv.requestsTo(PathCreateOrder)[0]
	require.Equal(t, "my-order", r.header.Get("Idempotency-Key"))
	require.Equal(t, "player#42", r.body["data"])
}

func TestPayOrder_NotRetried(t *testing.T) {
	srv := newAPIServer(t)
	srv.handle(PathPayOrder, func(w http.ResponseWriter, r *http.Request, hit int) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
	})
	client, sleeps := newTestClient(t, srv)

	_, err := client.PayOrder(context.Background(), "order-1")
	require.ErrorIs(t, err, ErrServer)
	require.Equal(t, 1, srv.hitCount(PathPayOrder))
	require.Zero(t, sleeps.count())
	require.Empty(t, srv.requestsTo(PathPayOrder)[0].header.Get("Idempotency-Key"))
}

func TestEndpoints_ValidateParams(t *testing.T) {
	client, err := New(WithCredentials("shop@example.com", "secret"))
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	calls := map[string]func() error{
		"create order without service": func() error {
			_, _, err := client.CreateOrder(ctx, CreateOrderParams{Quantity: 1})
			return err
		},
		"create order without quantity": func() error {
			_, _, err := client.CreateOrder(ctx, CreateOrderParams{ServiceID: 1})
			return err
		},
		"pay without id": func() error {
			_, err := client.PayOrder(ctx, "")
			return err
		},
		"order info without id": func() error {
			_, err := client.GetOrderInfo(ctx, "")
			return err
		},
		"zero steam amount": func() error {
			_, err := client.CalculateSteamAmount(ctx, 0)
			return err
		},
		"unknown region": func() error {
			_, err := client.CalculateSteamGift(ctx, 1, Region("us"))
			return err
		},
		"gift without friend link": func() error {
			_, err := client.CreateSteamGiftOrder(ctx, SteamGiftOrderParams{SubID: 1, Region: RegionRU})
			return err
		},
		"gift pay without id": func() error {
			_, err := client.PaySteamGiftOrder(ctx, "")
			return err
		},
		"bad whitelist ip": func() error {
			_, err := client.AddIPToWhitelist(ctx, "not-an-ip")
			return err
		},
		"empty whitelist ip": func() error {
			_, err := client.RemoveIPFromWhitelist(ctx, "")
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, ErrInvalidParams)
			require.ErrorIs(t, err, ErrClient)
		})
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"ru", RegionRU, false},
		{"KZ", RegionKZ, false},
		{" ua ", RegionUA, false},
		{"us", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
