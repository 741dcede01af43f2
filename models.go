package nsgifts

import (
	"fmt"
	"strings"
)

// Region is a Steam store region.
type Region string

// Supported Steam regions.
const (
	RegionRU Region = "ru"
	RegionKZ Region = "kz"
	RegionUA Region = "ua"
)

// ParseRegion accepts a region code in any case.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", invalidParams(fmt.Sprintf("unsupported region %q (want ru, kz or ua)", s))
	}
	return r, nil
}

// Valid reports whether r is a supported region.
func (r Region) Valid() bool {
	switch r {
	case RegionRU, RegionKZ, RegionUA:
		return true
	}
	return false
}

// CreateOrderParams are the inputs to CreateOrder.
type CreateOrderParams struct {
	ServiceID int
	Quantity  float64
	// CustomID identifies the order for payment and lookup. A UUID is
	// generated when empty.
	CustomID string
	// Data carries service-specific order details, such as an account name.
	Data string
}

// SteamGiftOrderParams are the inputs to CreateSteamGiftOrder.
type SteamGiftOrderParams struct {
	FriendLink      string
	SubID           int
	Region          Region
	GiftName        string
	GiftDescription string
}

// Request bodies.

type signupRequest struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	BybitDeposit string `json:"bybit_deposit"`
}

type categoryRequest struct {
	CategoryID int `json:"category_id"`
}

type createOrderRequest struct {
	ServiceID int     `json:"service_id"`
	Quantity  float64 `json:"quantity"`
	CustomID  string  `json:"custom_id"`
	Data      string  `json:"data,omitempty"`
}

type orderRequest struct {
	CustomID string `json:"custom_id"`
}

type steamAmountRequest struct {
	Amount int `json:"amount"`
}

type steamGiftCalculateRequest struct {
	SubID  int    `json:"sub_id"`
	Region Region `json:"region"`
}

type steamGiftOrderRequest struct {
	FriendLink      string `json:"friendLink"`
	SubID           int    `json:"sub_id"`
	Region          Region `json:"region"`
	GiftName        string `json:"giftName,omitempty"`
	GiftDescription string `json:"giftDescription,omitempty"`
}

type steamPackageRequest struct {
	PackageID int `json:"package_id"`
}

type ipRequest struct {
	IP string `json:"ip"`
}
