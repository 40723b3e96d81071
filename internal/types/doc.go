/*
Package types defines the domain values shared across skycli.

# Overview

The types package holds plain data with no behaviour beyond small helpers:
  - Feeds: FeedDescriptor, FeedID, Cursor
  - Posts: PostSummary, PostRef, Facet, Embed, Thread
  - Input: Credentials, Draft, ReactionKind
  - Sentinel errors used to classify network failures

# Ordering

Feed items are ordered by SortAt: a repost sorts by the time it was reposted,
everything else by its index time. Cursor.Advance only ever moves forward,
so a cursor is monotonically non-decreasing across successful fetches.

# Identity

Posts are deduplicated by AT URI (PostSummary.ID). Feeds are identified by
their AT URI, except the following timeline which uses TimelineID.

# Field Tags

Types carry JSON tags; PostSummary's JSON form is also the document that
per-feed JMESPath filters are evaluated against, so renaming a tag changes
the filter language seen by users.
*/
package types
