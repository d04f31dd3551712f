// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauthticket_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthticket/providers"
	"github.com/hashicorp/oauthticket/ticket"
	"golang.org/x/oauth2"
)

func Example_weibo() {
	ctx := context.Background()
	logger := hclog.New(&hclog.LoggerOptions{Name: "auth", Level: hclog.Info})

	p := providers.Weibo()
	oauthConfig := &oauth2.Config{
		ClientID:     "your_client_id",
		ClientSecret: "your_client_secret",
		RedirectURL:  "https://your_redirect_url/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://api.weibo.com/oauth2/authorize",
			TokenURL: "https://api.weibo.com/oauth2/access_token",
		},
		Scopes: p.Config.Scopes,
	}

	b, err := p.NewBuilder(ticket.WithLogger(logger))
	if err != nil {
		// handle error
	}

	callbackHandler := func(w http.ResponseWriter, r *http.Request) {
		tk, err := oauthConfig.Exchange(ctx, r.FormValue("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		// Weibo returns the user's id with the token
		t, err := ticket.TokenFromOAuth2(tk, "uid")
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		it, err := b.Build(r.Context(), t, ticket.WithProperties(ticket.Properties{".redirect": "/"}))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		sub, _ := it.FindFirst(ticket.ClaimSubject)
		fmt.Fprintf(w, "hello %s", sub.Value)
	}
	http.HandleFunc("/callback", callbackHandler)
}
