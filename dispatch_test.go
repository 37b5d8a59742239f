package msgbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerFailureIsolation(t *testing.T) {
	b := NewBus("isolated")
	defer b.Shutdown()

	boom := errors.New("boom")
	var after bool
	_, err := b.Subscribe("test.greeting", func(Message) error { return boom })
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error {
		after = true
		return nil
	})
	require.NoError(t, err)

	err = b.Publish(greeting{text: "x"})
	require.True(t, after, "handler registered after the failing one must still run")

	var agg *DispatchError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 1)
	require.Equal(t, TypeKey("test.greeting"), agg.Failures[0].Key)
	require.ErrorIs(t, err, boom, "the aggregate must unwrap to the handler's error")
}

func TestHandlerPanicIsolation(t *testing.T) {
	b := NewBus("recovering")
	defer b.Shutdown()

	var after bool
	_, err := b.Subscribe("test.greeting", func(Message) error { panic("kaboom") })
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error {
		after = true
		return nil
	})
	require.NoError(t, err)

	err = b.Publish(greeting{})
	require.True(t, after)

	var agg *DispatchError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 1)
	require.Contains(t, agg.Failures[0].Error(), "kaboom")
}

func TestAggregateListsEveryFailure(t *testing.T) {
	b := NewBus("aggregate")
	defer b.Shutdown()

	first := errors.New("first down")
	second := errors.New("second down")
	_, err := b.Subscribe("test.greeting", func(Message) error { return first })
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error { return nil })
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error { return second })
	require.NoError(t, err)

	err = b.Publish(greeting{})
	var agg *DispatchError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 2)
	require.ErrorIs(t, agg.Failures[0], first)
	require.ErrorIs(t, agg.Failures[1], second)
}

func TestHandlerErrorIdentifiesRegistration(t *testing.T) {
	b := NewBus("attributable")
	defer b.Shutdown()

	boom := errors.New("boom")
	tok, err := b.Subscribe("test.greeting", func(Message) error { return boom })
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error { return nil })
	require.NoError(t, err)

	err = b.Publish(greeting{})
	var agg *DispatchError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 1)
	require.NotZero(t, tok.ID())
	require.Equal(t, tok.ID(), agg.Failures[0].Sub,
		"a failure report points back at the registration's token")
}

func TestNestedPublishRunsAfterCurrentPass(t *testing.T) {
	b := NewBus("nested")
	defer b.Shutdown()

	var got []string
	_, err := b.Subscribe("test.greeting", func(m Message) error {
		got = append(got, "greet1:"+m.(greeting).text)
		require.NoError(t, b.Publish(farewell{text: "later"}))
		got = append(got, "greet1-done")
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.greeting", func(Message) error {
		got = append(got, "greet2")
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.farewell", func(m Message) error {
		got = append(got, "farewell:"+m.(farewell).text)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(greeting{text: "hi"}))
	require.Equal(t,
		[]string{"greet1:hi", "greet1-done", "greet2", "farewell:later"},
		got,
		"a message published by a handler dispatches only after the current pass")
}

func TestNestedPublishChain(t *testing.T) {
	b := NewBus("chained")
	defer b.Shutdown()

	var got []string
	_, err := b.Subscribe("test.greeting", func(Message) error {
		got = append(got, "greeting")
		return b.Publish(farewell{})
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.farewell", func(Message) error {
		got = append(got, "farewell")
		return b.Publish(announce{})
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.announce", func(Message) error {
		got = append(got, "announce")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(greeting{}))
	require.Equal(t, []string{"greeting", "farewell", "announce"}, got)
}

func TestNestedPublishFailuresFoldIntoRoot(t *testing.T) {
	b := NewBus("nested-errors")
	defer b.Shutdown()

	boom := errors.New("boom")
	_, err := b.Subscribe("test.greeting", func(Message) error {
		// The nested call defers and reports nothing itself.
		require.NoError(t, b.Publish(farewell{text: "x"}))
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.farewell", func(Message) error { return boom })
	require.NoError(t, err)

	err = b.Publish(greeting{})
	var agg *DispatchError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 1)
	require.Equal(t, TypeKey("test.farewell"), agg.Failures[0].Key)
	require.ErrorIs(t, err, boom)
}

func TestClassSubscriptionsRunAfterExact(t *testing.T) {
	b := NewBus("classes")
	defer b.Shutdown()

	var got []string
	_, err := b.Subscribe(ClassEvent, func(m Message) error {
		got = append(got, "class:"+string(m.Key()))
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.order_placed", func(m Message) error {
		got = append(got, "exact:"+m.(orderPlaced).id)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(orderPlaced{id: "o-1"}))
	require.Equal(t, []string{"exact:o-1", "class:test.order_placed"}, got,
		"exact-key handlers run before class handlers regardless of registration order")

	got = nil
	require.NoError(t, b.Publish(greeting{text: "hi"}))
	require.Empty(t, got, "messages without classes are invisible to class handlers")
}

func TestClassMutationDuringPassKeepsSnapshot(t *testing.T) {
	b := NewBus("class-snapshot")
	defer b.Shutdown()

	var got []string
	tokClass, err := b.Subscribe(ClassEvent, func(Message) error {
		got = append(got, "class")
		return nil
	})
	require.NoError(t, err)

	var once bool
	_, err = b.Subscribe("test.order_placed", func(Message) error {
		if !once {
			once = true
			require.NoError(t, b.Unsubscribe(tokClass))
			_, err := b.Subscribe(ClassEvent, func(Message) error {
				got = append(got, "class-added")
				return nil
			})
			require.NoError(t, err)
		}
		got = append(got, "exact")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(orderPlaced{id: "o-1"}))
	require.Equal(t, []string{"exact", "class"}, got,
		"class registrations changed mid-pass do not affect the in-flight pass")

	got = nil
	require.NoError(t, b.Publish(orderPlaced{id: "o-2"}))
	require.Equal(t, []string{"exact", "class-added"}, got,
		"the next pass sees the mutation")
}

func TestMutationDuringPassKeepsSnapshot(t *testing.T) {
	b := NewBus("snapshot")
	defer b.Shutdown()

	var got []string
	var tokSecond Token
	var once bool
	_, err := b.Subscribe("test.greeting", func(Message) error {
		if !once {
			once = true
			require.NoError(t, b.Unsubscribe(tokSecond))
			_, err := b.Subscribe("test.greeting", func(Message) error {
				got = append(got, "added")
				return nil
			})
			require.NoError(t, err)
		}
		got = append(got, "first")
		return nil
	})
	require.NoError(t, err)
	tokSecond, err = b.Subscribe("test.greeting", func(Message) error {
		got = append(got, "second")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(greeting{}))
	require.Equal(t, []string{"first", "second"}, got,
		"registrations changed mid-pass do not affect the in-flight pass")

	got = nil
	require.NoError(t, b.Publish(greeting{}))
	require.Equal(t, []string{"first", "added"}, got,
		"the next pass sees the mutation")
}
