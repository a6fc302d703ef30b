// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package ratelimit paces calls against VCS provider APIs so that group
// enumeration never exhausts a GitHub or GitLab rate limit mid-crawl.
//
// # Usage
//
//	limiter := ratelimit.NewLimiter(5000) // 5000 requests/hour
//	limiter.Wait(ctx)                     // Block until request allowed
//	remaining, limit, reset := limiter.Status()
package ratelimit
