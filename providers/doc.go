// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// providers contains ready to use provider definitions (Weibo, PayPal,
// GitHub) and loads custom ones from YAML.
//
// A definition file looks like:
//
//	providers:
//	  - name: Example
//	    user_information_endpoint: https://api.example.com/me
//	    scopes: [profile, email]
//	    token_placement: header # query (default), header or query_and_header
//	    identifier_params:
//	      - param: uid
//	        token_field: uid
//	    claims:
//	      - type: sub
//	        path: id
//	      - type: email
//	        path: emails.0
//	        optional: true
package providers
