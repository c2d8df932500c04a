package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetEmpty(t *testing.T) {
	s := NewStore[*int]()
	assert.Nil(t, s.Get())
}

func TestStore_ReplaceNotifiesInOrder(t *testing.T) {
	s := NewStore[int]()
	var seen []int
	s.Subscribe(func(v int) { seen = append(seen, v) })

	s.Replace(1)
	s.Replace(2)
	s.Replace(3)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 3, s.Get())
}

func TestStore_CancelStopsNotifications(t *testing.T) {
	s := NewStore[string]()
	var seen []string
	cancel := s.Subscribe(func(v string) { seen = append(seen, v) })

	s.Replace("before")
	cancel()
	s.Replace("after")

	assert.Equal(t, []string{"before"}, seen)
	assert.Equal(t, "after", s.Get())
}

func TestStore_MultipleSubscribers(t *testing.T) {
	s := NewStore[int]()
	var a, b int
	s.Subscribe(func(v int) { a = v })
	s.Subscribe(func(v int) { b = v })

	s.Replace(7)
	assert.Equal(t, 7, a)
	assert.Equal(t, 7, b)
}
