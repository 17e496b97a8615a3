package maintenance

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// fakeBookRepo 内存图书仓储
type fakeBookRepo struct {
	mu        sync.Mutex
	books     map[uint]*book.Book
	nextID    uint
	failOn    string // 该方法返回数据库错误
	updateErr error  // Update返回的错误
	updates   int
}

func newFakeBookRepo(books ...*book.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: map[uint]*book.Book{}}
	for _, b := range books {
		r.nextID++
		b.ID = r.nextID
		r.books[b.ID] = b
	}
	return r
}

var errFakeDB = apperrors.WrapCode(errors.New("connection reset"), apperrors.ErrCodeDatabaseError, "数据库错误")

func (r *fakeBookRepo) fail(method string) error {
	if r.failOn == method {
		return errFakeDB
	}
	return nil
}

func (r *fakeBookRepo) Create(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Create"); err != nil {
		return err
	}
	r.nextID++
	b.ID = r.nextID
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *fakeBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) FindByExternalID(_ context.Context, externalID string) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ExternalID != nil && *b.ExternalID == externalID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *fakeBookRepo) FindByTitleAuthor(_ context.Context, title, author string) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("FindByTitleAuthor"); err != nil {
		return nil, err
	}
	for _, b := range r.sortedLocked() {
		if b.Title == title && b.Author == author {
			cp := *b
			return &cp, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *fakeBookRepo) Update(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Update"); err != nil {
		return err
	}
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *b
	r.books[b.ID] = &cp
	r.updates++
	return nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) List(_ context.Context, params book.ListParams) ([]*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(), nil
}

func (r *fakeBookRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Count"); err != nil {
		return 0, err
	}
	return int64(len(r.books)), nil
}

func (r *fakeBookRepo) ListMissingExternalID(_ context.Context, afterID uint, limit int) ([]*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ListMissingExternalID"); err != nil {
		return nil, err
	}
	var list []*book.Book
	for _, b := range r.sortedLocked() {
		if b.ID > afterID && !b.HasExternalID() && len(list) < limit {
			cp := *b
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *fakeBookRepo) Stats(_ context.Context) (*book.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Stats"); err != nil {
		return nil, err
	}
	stats := &book.Stats{TotalBooks: int64(len(r.books)), GenreDistribution: map[string]int64{}}
	for _, b := range r.books {
		stats.GenreDistribution[b.Genre]++
	}
	return stats, nil
}

func (r *fakeBookRepo) sortedLocked() []*book.Book {
	list := make([]*book.Book, 0, len(r.books))
	for _, b := range r.books {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *fakeBookRepo) byTitle(title string) *book.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.Title == title {
			return b
		}
	}
	return nil
}

// fakeLookup 按书名返回预置结果
type fakeLookup struct {
	byTitle map[string]*book.Metadata
	errors  map[string]error
	calls   int
}

func (l *fakeLookup) Lookup(context.Context, string) (*book.Metadata, error) {
	return nil, nil
}

func (l *fakeLookup) Search(context.Context, string, int) ([]*book.Metadata, error) {
	return nil, nil
}

func (l *fakeLookup) FindBest(_ context.Context, title, _ string) (*book.Metadata, error) {
	l.calls++
	if err, ok := l.errors[title]; ok {
		return nil, err
	}
	return l.byTitle[title], nil
}

// countingTx 直接执行fn
type countingTx struct {
	calls int
}

func (tx *countingTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func strp(s string) *string { return &s }
