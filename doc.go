// Package nsgifts provides a Go client for the NS Gifts API, a service for
// buying digital goods and Steam gifts.
//
// The client logs in on demand, renews the bearer token before it expires,
// and retries transient failures (connection errors, timeouts, HTTP 5xx)
// with exponential backoff. Payments are never retried.
//
// Basic usage:
//
//	client, err := nsgifts.New(nsgifts.WithCredentials("shop@example.com", "secret"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	balance, err := client.CheckBalance(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(balance)
//
// Every failure is an *Error carrying a Kind:
//
//	if errors.Is(err, nsgifts.ErrAuthentication) {
//	    // credentials rejected
//	}
package nsgifts
