// Package subscription keeps the application's local view of "what plan is
// this user on" in sync with an external billing provider and derives feature
// permissions from it.
//
// The package is built around a few small cooperating pieces:
//
//   - PlanRecord / PlanRecordStore: one persistent record per user holding the
//     provider's subscription, customer and price identifiers plus the period
//     end. A user without a record is simply on the free level.
//
//   - Resolver: a total function from (record, now) to a SubscriptionLevel.
//     Expired or unrecognized records resolve to LevelFree, never to an error.
//     Results may be memoized within a single request via the context helpers;
//     they must never be cached across requests because expiry is time-based.
//
//   - Permission gate: pure functions gating resume creation, AI tools and
//     customizations off a SubscriptionLevel.
//
//   - Reconciler: consumes verified billing events (checkout completion,
//     subscription lifecycle) and performs idempotent upserts/deletes against
//     the store. Safe under at-least-once delivery: replays converge to the
//     same record because all writes are keyed by user id, not event id.
//
//   - Service: request-time entry points for starting checkout and customer
//     portal sessions and for manual plan grants used by the debug endpoint.
//
// The BillingGateway and IdentityStore interfaces isolate the Stripe SDK and
// the identity provider so the state machine can be tested without either.
package subscription
