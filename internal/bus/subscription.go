package bus

import (
	"fmt"
	"strings"
	"unique"

	"github.com/google/btree"
)

// Subscription binds a handler to a pattern. Two subscriptions are equal when
// pattern and handler ID match, whatever their priority.
type Subscription struct {
	Pattern  Pattern
	Handler  Handler
	Priority uint8

	handlerID unique.Handle[string]
}

// NewSubscription creates a subscription. Higher priorities are delivered first.
func NewSubscription(pattern Pattern, handler Handler, priority uint8) Subscription {
	return Subscription{
		Pattern:   pattern,
		Handler:   handler,
		Priority:  priority,
		handlerID: unique.Make(handler.ID()),
	}
}

// HandlerID returns the identifier of the subscribed handler.
func (s Subscription) HandlerID() string {
	return s.handlerID.Value()
}

// Equal compares pattern and handler ID.
func (s Subscription) Equal(other Subscription) bool {
	return s.key() == other.key()
}

// Less orders by priority descending, then pattern, then handler ID.
func (s Subscription) Less(other Subscription) bool {
	return compareSubscriptions(s, other) < 0
}

func (s Subscription) String() string {
	return fmt.Sprintf("Subscription{pattern: %s, handler: %s, priority: %d}", s.Pattern, s.HandlerID(), s.Priority)
}

type subscriptionKey struct {
	pattern   Pattern
	handlerID unique.Handle[string]
}

func (s Subscription) key() subscriptionKey {
	return subscriptionKey{pattern: s.Pattern, handlerID: s.handlerID}
}

func compareSubscriptions(a, b Subscription) int {
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}
	if c := a.Pattern.compare(b.Pattern.mstr); c != 0 {
		return c
	}
	if a.handlerID == b.handlerID {
		return 0
	}
	return strings.Compare(a.HandlerID(), b.HandlerID())
}

// subscriptionSet keeps subscriptions unique by key and iterable in delivery order.
type subscriptionSet struct {
	ordered *btree.BTreeG[Subscription]
	index   map[subscriptionKey]Subscription
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{
		ordered: btree.NewG(16, Subscription.Less),
		index:   make(map[subscriptionKey]Subscription),
	}
}

func (s *subscriptionSet) Len() int {
	return len(s.index)
}

func (s *subscriptionSet) Contains(sub Subscription) bool {
	_, ok := s.index[sub.key()]
	return ok
}

// Insert adds sub and reports whether it was absent.
func (s *subscriptionSet) Insert(sub Subscription) bool {
	if s.Contains(sub) {
		return false
	}
	s.index[sub.key()] = sub
	s.ordered.ReplaceOrInsert(sub)
	return true
}

// Remove deletes the stored subscription equal to sub and returns it.
func (s *subscriptionSet) Remove(sub Subscription) (Subscription, bool) {
	stored, ok := s.index[sub.key()]
	if !ok {
		return Subscription{}, false
	}
	delete(s.index, sub.key())
	s.ordered.Delete(stored)
	return stored, true
}

// Ascend walks the subscriptions in delivery order until fn returns false.
func (s *subscriptionSet) Ascend(fn func(Subscription) bool) {
	s.ordered.Ascend(btree.ItemIteratorG[Subscription](fn))
}

// Matching returns the subscriptions matching topic in delivery order.
func (s *subscriptionSet) Matching(topic Topic) []Subscription {
	var matches []Subscription
	s.Ascend(func(sub Subscription) bool {
		if sub.Pattern.Matches(topic) {
			matches = append(matches, sub)
		}
		return true
	})
	return matches
}

// CountMatching counts the subscriptions matching topic without collecting them.
func (s *subscriptionSet) CountMatching(topic Topic) int {
	count := 0
	s.Ascend(func(sub Subscription) bool {
		if sub.Pattern.Matches(topic) {
			count++
		}
		return true
	})
	return count
}
