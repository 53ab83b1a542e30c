package orm

import (
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/driptest/assert"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/store"
)

// label is a second model type, to test cross-bucket parsing. Any payload
// that is not 8 bytes long cannot be confused with a Counter.
type label struct {
	Text string
}

var _ Model = (*label)(nil)

func (l *label) Marshal() ([]byte, error) {
	return []byte(l.Text), nil
}

func (l *label) Unmarshal(raw []byte) error {
	l.Text = string(raw)
	return nil
}

func (l *label) Validate() error {
	if len(l.Text) == 0 {
		return errors.Wrap(errors.ErrEmpty, "text")
	}
	return nil
}

func (l *label) Copy() CloneableData {
	return &label{Text: l.Text}
}

func TestBucketName(t *testing.T) {
	obj := NewSimpleObj(nil, &Counter{})

	assert.Panics(t, func() {
		// An invalid bucket name must crash.
		NewBucket("l33t", obj)
	})
}

func TestBucketNameCollision(t *testing.T) {
	const bucketName = "mybucket"
	var objkey = []byte("collision-key")

	counter := &Counter{}
	assert.Nil(t, counter.Validate())
	o1 := NewSimpleObj(objkey, counter)
	b1 := NewBucket(bucketName, NewSimpleObj(nil, &Counter{}))

	short := &label{Text: "foobar"}
	assert.Nil(t, short.Validate())
	o2 := NewSimpleObj(objkey, short)
	b2 := NewBucket(bucketName, NewSimpleObj(nil, &label{}))

	db := store.MemStore()
	assert.Nil(t, b1.Save(db, o1))

	// Buckets do not know about each other. Saving an object under the
	// same key overwrites and because there is no check of stored data,
	// this operation does not fail.
	if err := b2.Save(db, o2); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	// Loading an object using the wrong bucket must fail because the
	// deserialization cannot happen.
	if _, err := b1.Get(db, objkey); !errors.ErrState.Is(err) {
		t.Fatalf("cannot get object: %+v", err)
	}
}

func TestBucketCannotSaveInvalid(t *testing.T) {
	counter := &Counter{
		Count: -999, // Negative value is not valid.
	}
	if err := counter.Validate(); !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %s", err)
	}

	o := NewSimpleObj([]byte("mykey"), counter)
	b := NewBucket("mybucket", NewSimpleObj(nil, &Counter{}))

	db := store.MemStore()
	if err := b.Save(db, o); !errors.ErrState.Is(err) {
		t.Fatalf("invalid object must not save: %s", err)
	}
}

func TestBucketGetSave(t *testing.T) {
	counter := NewCounter(848)
	assert.Nil(t, counter.Validate())

	o := NewSimpleObj([]byte("mykey"), counter)
	b := NewBucket("mybucket", NewSimpleObj(nil, &Counter{}))

	db := store.MemStore()
	if err := b.Save(db, o); err != nil {
		t.Fatalf("cannot save: %s", err)
	}

	res, err := b.Get(db, []byte("mykey"))
	if err != nil {
		t.Fatalf("cannot get object: %s", err)
	}

	c, ok := res.Value().(*Counter)
	if !ok {
		t.Fatalf("unexpected type: %T", res.Value())
	}
	if c.Count != 848 {
		t.Fatalf("unexpected counter state: %d", c.Count)
	}

	// Update the counter state. This is a reference so the data
	// represented by `res` will be updated as well. Storing res in the
	// bucket must save the new state.
	c.Count = 59
	if err := b.Save(db, res); err != nil {
		t.Fatalf("cannot overwrite counter: %s", err)
	}

	res, err = b.Get(db, []byte("mykey"))
	if err != nil {
		t.Fatalf("cannot get overwritten object: %s", err)
	}
	if c, ok = res.Value().(*Counter); !ok {
		t.Fatalf("unexpected type: %T", res.Value())
	} else if c.Count != 59 {
		t.Fatalf("unexpected counter state: %d", c.Count)
	}
}

// Make sure we have independent sequences.
func TestBucketSequence(t *testing.T) {
	b1 := NewBucket("aaa", NewSimpleObj(nil, &Counter{}))
	b2 := NewBucket("bbb", NewSimpleObj(nil, &Counter{}))

	db := store.MemStore()

	// Ensure they are sequential and not affecting one another. Repeat
	// this operation several times.
	for i := int64(1); i < 10; i++ {
		sa := b1.Sequence("seq1")
		a, err := sa.NextInt(db)
		assert.Nil(t, err)

		sb := b1.Sequence("seq2") // The same bucket but different name.
		b, err := sb.NextInt(db)
		assert.Nil(t, err)

		sc := b2.Sequence("seq1") // The same name but different bucket.
		c, err := sc.NextInt(db)
		assert.Nil(t, err)

		if a != i || a != b || a != c {
			t.Fatalf("different sequences increment independently: a=%d b=%d c=%d", a, b, c)
		}
	}
}

// Check query interface works, also with the prefix mod
func TestBucketQuery(t *testing.T) {
	const name = "special"
	const bPath = "/special"

	// use a different name for the bucket prefix than for queries
	bucket := NewBucket("spec", NewSimpleObj(nil, new(Counter)))

	qr := drip.NewQueryRouter()
	bucket.Register(name, qr)

	// store some data here for init
	db := store.MemStore()
	a, b, c := []byte("aa"), []byte("aab"), []byte("caac")
	oa := NewSimpleObj(a, NewCounter(5))
	ob := NewSimpleObj(b, NewCounter(256+5))
	oc := NewSimpleObj(c, NewCounter(2))
	assert.Nil(t, bucket.Save(db, oa))
	assert.Nil(t, bucket.Save(db, ob))
	assert.Nil(t, bucket.Save(db, oc))

	toModel := func(t testing.TB, bucket Bucket, obj Object) drip.Model {
		t.Helper()

		dbkey := bucket.DBKey(obj.Key())
		val, err := obj.Value().Marshal()
		assert.Nil(t, err)
		return drip.Model{Key: dbkey, Value: val}
	}

	// these are the expected models with absolute keys
	// and serialized data
	dba := toModel(t, bucket, oa)
	dbb := toModel(t, bucket, ob)
	dbc := toModel(t, bucket, oc)
	assert.Equal(t, []byte("spec:aa"), dba.Key)

	cases := map[string]struct {
		path           string
		mod            string
		data           []byte
		missingHandler bool
		wantErr        *errors.Error
		expected       []drip.Model
	}{
		"bad path": {
			path:           bPath + "/",
			missingHandler: true,
		},
		"bad mod": {
			path:    bPath,
			mod:     "foo",
			data:    a,
			wantErr: errors.ErrInput,
		},
		"simple query - hit": {
			path:     bPath,
			data:     a,
			expected: []drip.Model{dba},
		},
		"simple query - miss": {
			path: bPath,
			data: []byte("a"),
		},
		"prefix query - multi hit": {
			path:     bPath,
			mod:      "prefix",
			data:     []byte("a"),
			expected: []drip.Model{dba, dbb},
		},
		"prefix query - miss": {
			path: bPath,
			mod:  "prefix",
			data: []byte("cc"),
		},
		"prefix query - all": {
			path:     bPath,
			mod:      "prefix",
			expected: []drip.Model{dba, dbb, dbc},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			qh := qr.Handler(tc.path)
			if tc.missingHandler {
				assert.Nil(t, qh)
				return
			}
			if qh == nil {
				t.Fatal("nil query handler")
			}

			res, err := qh.Query(db, tc.mod, tc.data)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %s", err)
			}
			if err != nil {
				return
			}
			assert.Equal(t, tc.expected, res)
		})
	}
}
