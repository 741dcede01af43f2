package nsgifts

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nsgifts/client-go/internal/session"
)

// API paths.
const (
	PathLogin                = session.DefaultLoginPath
	PathSignup               = "/api/v1/signup"
	PathAllServices          = "/api/v1/get_all_services"
	PathCategories           = "/api/v1/get_categories"
	PathServicesByCategory   = "/api/v1/get_services_by_category"
	PathCreateOrder          = "/api/v1/create_order"
	PathPayOrder             = "/api/v1/pay_order"
	PathOrderInfo            = "/api/v1/get_order_info"
	PathCheckBalance         = "/api/v1/check_balance"
	PathUserInfo             = "/api/v1/get_user_info"
	PathSteamAmount          = "/api/v1/steam/calculate_amount"
	PathSteamCurrencyRate    = "/api/v1/steam/get_currency_rate"
	PathSteamGiftCalculate   = "/api/v1/steam/calculate_gift"
	PathSteamGiftCreateOrder = "/api/v1/steam/create_gift_order"
	PathSteamGiftPayOrder    = "/api/v1/steam/pay_gift_order"
	PathSteamPackagePrice    = "/api/v1/steam/get_package_price"
	PathWhitelistAdd         = "/api/v1/ip_whitelist/add"
	PathWhitelistRemove      = "/api/v1/ip_whitelist/remove"
	PathWhitelistList        = "/api/v1/ip_whitelist/list"
)

// query sends an authenticated, retry-safe POST and returns the decoded body.
// The API uses POST for reads too.
func (c *Client) query(ctx context.Context, path string, body any) (*Response, error) {
	var resp Response
	err := c.Call(ctx, &Request{
		Method:       http.MethodPost,
		Path:         path,
		Body:         body,
		RequiresAuth: true,
		Idempotent:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// command sends an authenticated POST with side effects. It is retried only
// when dedupKey is non-empty.
func (c *Client) command(ctx context.Context, path string, body any, dedupKey string) (*Response, error) {
	var resp Response
	err := c.Call(ctx, &Request{
		Method:       http.MethodPost,
		Path:         path,
		Body:         body,
		RequiresAuth: true,
		DedupKey:     dedupKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAllServices lists every available service.
func (c *Client) GetAllServices(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathAllServices, nil)
}

// GetCategories lists service categories.
func (c *Client) GetCategories(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathCategories, nil)
}

// GetServicesByCategory lists the services in a category.
func (c *Client) GetServicesByCategory(ctx context.Context, categoryID int) (*Response, error) {
	return c.query(ctx, PathServicesByCategory, categoryRequest{CategoryID: categoryID})
}

// CreateOrder creates an order and returns the custom ID it was filed under.
// The custom ID doubles as the idempotency key, so the call is retried on
// transient failures.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (*Response, string, error) {
	if params.ServiceID <= 0 {
		return nil, "", invalidParams("service ID must be positive")
	}
	if params.Quantity <= 0 {
		return nil, "", invalidParams("quantity must be positive")
	}
	customID := params.CustomID
	if customID == "" {
		customID = uuid.NewString()
	}

	resp, err := c.command(ctx, PathCreateOrder, createOrderRequest{
		ServiceID: params.ServiceID,
		Quantity:  params.Quantity,
		CustomID:  customID,
		Data:      params.Data,
	}, customID)
	return resp, customID, err
}

// PayOrder pays for an order. Payments are never retried.
func (c *Client) PayOrder(ctx context.Context, customID string) (*Response, error) {
	if customID == "" {
		return nil, invalidParams("custom ID is required")
	}
	return c.command(ctx, PathPayOrder, orderRequest{CustomID: customID}, "")
}

// GetOrderInfo returns the details of an order.
func (c *Client) GetOrderInfo(ctx context.Context, customID string) (*Response, error) {
	if customID == "" {
		return nil, invalidParams("custom ID is required")
	}
	return c.query(ctx, PathOrderInfo, orderRequest{CustomID: customID})
}

// CheckBalance returns the account balance.
func (c *Client) CheckBalance(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathCheckBalance, nil)
}

// GetUserInfo returns the account profile.
func (c *Client) GetUserInfo(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathUserInfo, nil)
}

// CalculateSteamAmount converts a RUB amount into a Steam top-up quote.
func (c *Client) CalculateSteamAmount(ctx context.Context, amount int) (*Response, error) {
	if amount <= 0 {
		return nil, invalidParams("amount must be positive")
	}
	return c.query(ctx, PathSteamAmount, steamAmountRequest{Amount: amount})
}

// GetSteamCurrencyRate returns the current Steam currency rates.
func (c *Client) GetSteamCurrencyRate(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathSteamCurrencyRate, nil)
}

// CalculateSteamGift quotes a Steam gift for a package in a region.
func (c *Client) CalculateSteamGift(ctx context.Context, subID int, region Region) (*Response, error) {
	if !region.Valid() {
		return nil, invalidParams(fmt.Sprintf("unsupported region %q", region))
	}
	return c.query(ctx, PathSteamGiftCalculate, steamGiftCalculateRequest{SubID: subID, Region: region})
}

// CreateSteamGiftOrder creates a Steam gift order for a friend. It is not
// retried.
func (c *Client) CreateSteamGiftOrder(ctx context.Context, params SteamGiftOrderParams) (*Response, error) {
	if strings.TrimSpace(params.FriendLink) == "" {
		return nil, invalidParams("friend link is required")
	}
	if !params.Region.Valid() {
		return nil, invalidParams(fmt.Sprintf("unsupported region %q", params.Region))
	}
	return c.command(ctx, PathSteamGiftCreateOrder, steamGiftOrderRequest{
		FriendLink:      params.FriendLink,
		SubID:           params.SubID,
		Region:          params.Region,
		GiftName:        params.GiftName,
		GiftDescription: params.GiftDescription,
	}, "")
}

// PaySteamGiftOrder pays for a Steam gift order. Payments are never retried.
func (c *Client) PaySteamGiftOrder(ctx context.Context, customID string) (*Response, error) {
	if customID == "" {
		return nil, invalidParams("custom ID is required")
	}
	return c.command(ctx, PathSteamGiftPayOrder, orderRequest{CustomID: customID}, "")
}

// GetSteamPackagePrice returns a package's price in each region.
func (c *Client) GetSteamPackagePrice(ctx context.Context, packageID int) (*Response, error) {
	return c.query(ctx, PathSteamPackagePrice, steamPackageRequest{PackageID: packageID})
}

// AddIPToWhitelist allows API access from ip.
func (c *Client) AddIPToWhitelist(ctx context.Context, ip string) (*Response, error) {
	if net.ParseIP(ip) == nil {
		return nil, invalidParams(fmt.Sprintf("invalid IP address %q", ip))
	}
	return c.query(ctx, PathWhitelistAdd, ipRequest{IP: ip})
}

// RemoveIPFromWhitelist revokes API access from ip.
func (c *Client) RemoveIPFromWhitelist(ctx context.Context, ip string) (*Response, error) {
	if net.ParseIP(ip) == nil {
		return nil, invalidParams(fmt.Sprintf("invalid IP address %q", ip))
	}
	return c.query(ctx, PathWhitelistRemove, ipRequest{IP: ip})
}

// ListWhitelistIPs lists the whitelisted IP addresses.
func (c *Client) ListWhitelistIPs(ctx context.Context) (*Response, error) {
	return c.query(ctx, PathWhitelistList, nil)
}
