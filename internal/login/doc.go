// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login turns server login responses into attempt and lockout state.
//
// A Controller belongs to one login form. It tracks how many attempts the
// server still allows, shows a warning once that reaches one, and disables
// submission while the account is locked. Timed locks expire on their own:
// a background check compares the clock to the unlock time and resets the
// form without contacting the server.
//
// # States
//
//	Ready          remaining attempts >= 1, no warning
//	Warned         remaining attempts <= 1, warning visible
//	Locked         submit disabled; countdown when the unlock time is known
//	Authenticated  token handed to the session store
//
// # Usage
//
//	ctrl := login.NewController(client, store,
//	    login.WithCheckInterval(2*time.Second),
//	    login.WithOnChange(func(s login.State) { program.Send(stateMsg(s)) }),
//	)
//	defer ctrl.Close()
//
//	outcome, err := ctrl.Submit(ctx, api.Credentials{Email: e, Password: p})
//
// Only network and server failures come back as errors; rejected and
// locked logins are reported through the outcome and the state.
package login
