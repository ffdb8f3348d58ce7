package subscription

// Subscriber identifies the owner of a subscription. Any concrete
// entity type (user, team, organization) can subscribe by exposing a
// stable ID and a type tag; the pair scopes subscription slugs and
// lets one store hold subscriptions of mixed owner types.
type Subscriber interface {
	SubscriberID() string
	SubscriberType() string
}

// SubscriberRef is the stored form of a Subscriber: a plain
// (type, id) tag pair. It implements Subscriber itself.
type SubscriberRef struct {
	Type string
	ID   string
}

func (r SubscriberRef) SubscriberID() string   { return r.ID }
func (r SubscriberRef) SubscriberType() string { return r.Type }

// RefOf normalizes any Subscriber into its stored reference.
func RefOf(s Subscriber) SubscriberRef {
	if r, ok := s.(SubscriberRef); ok {
		return r
	}
	return SubscriberRef{Type: s.SubscriberType(), ID: s.SubscriberID()}
}
