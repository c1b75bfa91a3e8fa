// Package api exposes the revision engines over HTTP.
//
// Routes:
//
//	POST /contracts                 insert a draft contract
//	GET  /contracts                 list contracts (?state=MN)
//	GET  /contracts/:id             contract with history
//	PUT  /contracts/:id/draft       update the contract's draft
//	POST /contracts/:id/unlock      unlock the contract
//	POST /rates ... GET /rates/:id  the same for rates
//	POST /submissions               submit a contract and/or rates
//	GET  /metrics                   Prometheus metrics
//	GET  /healthz                   store health
//
// Errors are JSON {"code","message"} with NOT_FOUND as 404, NO_DRAFT and
// ALREADY_UNLOCKED as 409, UNSUBMITTED_DEPENDENCY as 422,
// INVALID_ARGUMENT as 400 and anything else as 500.
package api
