package dealer

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/upload"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepository struct {
	mu          sync.Mutex
	nextID      uint
	memberships map[uint]Membership
	dealers     map[uint]Dealer
	products    map[uint]Product
	deals       map[uint]Deal
	// takenOnce makes the next dealer insert fail with ErrUsernameTaken
	takenOnce bool
}

func newMemRepository() *memRepository {
	return &memRepository{
		memberships: map[uint]Membership{},
		dealers:     map[uint]Dealer{},
		products:    map[uint]Product{},
		deals:       map[uint]Deal{},
	}
}

func (r *memRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memRepository) CreateMembership(_ context.Context, m *Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.id()
	m.CreatedAt = time.Now()
	r.memberships[m.ID] = *m
	return nil
}

func (r *memRepository) FindMembership(_ context.Context, id uint) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memberships[id]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return &m, nil
}

func (r *memRepository) ListMemberships(_ context.Context, status MembershipStatus) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Membership
	for _, m := range r.memberships {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepository) DeleteMembership(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.memberships[id]; !ok {
		return ErrMembershipNotFound
	}
	delete(r.memberships, id)
	return nil
}

func (r *memRepository) Accept(_ context.Context, m *Membership, d *Dealer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.memberships[m.ID]
	if stored.Status != MembershipPending {
		return ErrAlreadyDecided
	}
	if r.takenOnce {
		r.takenOnce = false
		return ErrUsernameTaken
	}
	for _, existing := range r.dealers {
		if existing.Username == d.Username {
			return ErrUsernameTaken
		}
	}
	d.ID = r.id()
	r.dealers[d.ID] = *d
	stored.Status = MembershipAccepted
	r.memberships[m.ID] = stored
	m.Status = MembershipAccepted
	return nil
}

func (r *memRepository) FindDealerByUsername(_ context.Context, username string) (*Dealer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dealers {
		if d.Username == username {
			return &d, nil
		}
	}
	return nil, ErrDealerNotFound
}

func (r *memRepository) TouchLogin(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dealers[id]
	d.LastLoginAt = &at
	r.dealers[id] = d
	return nil
}

func (r *memRepository) CreateProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	r.products[p.ID] = *p
	return nil
}

func (r *memRepository) SaveProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memRepository) FindProduct(_ context.Context, id uint) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *memRepository) ListProducts(_ context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memRepository) DeleteProduct(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memRepository) CreateDeal(_ context.Context, d *Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = r.id()
	r.deals[d.ID] = *d
	return nil
}

func (r *memRepository) SaveDeal(_ context.Context, d *Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deals[d.ID]; !ok {
		return ErrDealNotFound
	}
	r.deals[d.ID] = *d
	return nil
}

func (r *memRepository) FindDeal(_ context.Context, id uint) (*Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return nil, ErrDealNotFound
	}
	return &d, nil
}

func (r *memRepository) ListDeals(_ context.Context) ([]Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Deal{}
	for _, d := range r.deals {
		out = append(out, d)
	}
	return out, nil
}

func (r *memRepository) DeleteDeal(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deals[id]; !ok {
		return ErrDealNotFound
	}
	delete(r.deals, id)
	return nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (b *memBlobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	io.Copy(io.Discard, body)
	url := "https://cdn.test/" + key
	b.objects[url] = true
	return url, nil
}

func (b *memBlobs) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, url)
	return nil
}

type sentCredentials struct {
	to, name, username, password string
}

type recordingSender struct {
	sent []sentCredentials
	err  error
}

func (s *recordingSender) SendDealerCredentials(_ context.Context, to, name, username, password string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentCredentials{to, name, username, password})
	return nil
}

func image(name string) *upload.File {
	return &upload.File{
		Filename: name,
		Size:     4,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("jpeg")), nil
		},
	}
}

type fixture struct {
	svc    *Service
	repo   *memRepository
	blobs  *memBlobs
	sender *recordingSender
}

func newFixture() fixture {
	cfg := &config.Config{
		Upload:   config.UploadConfig{MaxSize: 1 << 20, AllowedExtensions: []string{"jpg", "png"}},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
	f := fixture{
		repo:   newMemRepository(),
		blobs:  &memBlobs{objects: map[string]bool{}},
		sender: &recordingSender{},
	}
	uploads := upload.NewService(f.blobs, cfg, logger.Discard())
	f.svc = NewService(f.repo, uploads, auth.NewPasswordManager(cfg), f.sender, cfg, logger.Discard())
	return f
}

func (f fixture) submit(t *testing.T) *Membership {
	t.Helper()
	m, err := f.svc.SubmitMembership(context.Background(), &MembershipRequest{
		DealerName: "Ali Traders",
		Phone:      "0300-1234567",
		Email:      "ali@traders.pk",
		ShopPic:    image("shop.jpg"),
		ShopCard:   image("card.png"),
	})
	require.NoError(t, err)
	return m
}

func TestSubmitMembership(t *testing.T) {
	f := newFixture()
	m := f.submit(t)

	assert.Equal(t, MembershipPending, m.Status)
	assert.Contains(t, m.ShopPic, "/membership/")
	assert.Len(t, f.blobs.objects, 2)
}

func TestSubmitMembershipValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitMembership(context.Background(), &MembershipRequest{DealerName: "Ali", ShopPic: image("a.jpg")})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"phone", "email"}, verr.Fields)

	_, err = f.svc.SubmitMembership(context.Background(), &MembershipRequest{
		DealerName: "Ali", Phone: "1", Email: "ali@x.pk", ShopPic: image("a.jpg"),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"shopCard"}, verr.Fields)

	_, err = f.svc.SubmitMembership(context.Background(), &MembershipRequest{
		DealerName: "Ali", Phone: "1", Email: "not-an-email", ShopPic: image("a.jpg"), ShopCard: image("b.jpg"),
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.blobs.objects)
}

func TestAcceptMembership(t *testing.T) {
	f := newFixture()
	m := f.submit(t)

	result, err := f.svc.Accept(context.Background(), m.ID)
	require.NoError(t, err)

	assert.True(t, result.Emailed)
	assert.Empty(t, result.TemporaryPassword)
	assert.Regexp(t, `^alitraders\d{4}$`, result.Username)

	require.Len(t, f.sender.sent, 1)
	sent := f.sender.sent[0]
	assert.Equal(t, "ali@traders.pk", sent.to)
	assert.Equal(t, result.Username, sent.username)
	assert.NotEqual(t, sent.password, result.Dealer.PasswordHash)

	stored, _ := f.repo.FindMembership(context.Background(), m.ID)
	assert.Equal(t, MembershipAccepted, stored.Status)

	dealer, err := f.svc.Authenticate(context.Background(), sent.username, sent.password)
	require.NoError(t, err)
	assert.NotNil(t, dealer.LastLoginAt)

	_, err = f.svc.Accept(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestAcceptRetriesTakenUsername(t *testing.T) {
	f := newFixture()
	m := f.submit(t)
	f.repo.takenOnce = true

	result, err := f.svc.Accept(context.Background(), m.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Username)
	assert.Len(t, f.repo.dealers, 1)
}

func TestAcceptReturnsPasswordWhenEmailFails(t *testing.T) {
	f := newFixture()
	m := f.submit(t)
	f.sender.err = errors.New("smtp down")

	result, err := f.svc.Accept(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, result.Emailed)
	require.NotEmpty(t, result.TemporaryPassword)

	_, err = f.svc.Authenticate(context.Background(), result.Username, result.TemporaryPassword)
	assert.NoError(t, err)
}

func TestRejectMembership(t *testing.T) {
	f := newFixture()
	m := f.submit(t)

	require.NoError(t, f.svc.Reject(context.Background(), m.ID))
	assert.Empty(t, f.blobs.objects)

	err := f.svc.Reject(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
	assert.True(t, IsNotFound(err))
}

func TestListMemberships(t *testing.T) {
	f := newFixture()
	first := f.submit(t)
	f.submit(t)
	_, err := f.svc.Accept(context.Background(), first.ID)
	require.NoError(t, err)

	pending, err := f.svc.ListMemberships(context.Background(), MembershipPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := f.svc.ListMemberships(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListMemberships(context.Background(), "Rejected")
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthenticateRejects(t *testing.T) {
	f := newFixture()
	m := f.submit(t)
	result, err := f.svc.Accept(context.Background(), m.ID)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), result.Username, "Wrong#Pass9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(context.Background(), "nobody", "Wrong#Pass9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(context.Background(), "", "")
	assert.True(t, apperror.IsValidation(err))
}

func TestDealerProductPricing(t *testing.T) {
	f := newFixture()

	p, err := f.svc.CreateProduct(context.Background(), &ProductRequest{
		ProductName: "Split AC 1.5 Ton",
		NormalPrice: "185000",
		Discount:    "7.5",
		MinOrder:    "3",
		Image:       image("ac.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "171125.00", p.DealerPrice.StringFixed(2))
	assert.Equal(t, 3, p.MinOrder)

	discount := decimal.NewFromInt(150)
	p, err = f.svc.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{Discount: &discount})
	require.NoError(t, err)
	assert.True(t, p.DealerPrice.IsZero(), "discount clamps to 100")

	p, err = f.svc.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{RemoveDiscount: true})
	require.NoError(t, err)
	assert.Equal(t, "185000", p.DealerPrice.String())

	require.NoError(t, f.svc.DeleteProduct(context.Background(), p.ID))
	assert.Empty(t, f.blobs.objects)
}

func TestDealerProductValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		req   ProductRequest
		field string
	}{
		{"no image", ProductRequest{ProductName: "AC", NormalPrice: "1"}, "image"},
		{"bad price", ProductRequest{ProductName: "AC", NormalPrice: "abc", Image: image("a.jpg")}, "normalPrice"},
		{"bad discount", ProductRequest{ProductName: "AC", NormalPrice: "10", Discount: "ten", Image: image("a.jpg")}, "discount"},
		{"bad min order", ProductRequest{ProductName: "AC", NormalPrice: "10", MinOrder: "0", Image: image("a.jpg")}, "minOrder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(context.Background(), &tt.req)
			var verr *apperror.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
	assert.Empty(t, f.repo.products)
}

func TestDeals(t *testing.T) {
	f := newFixture()

	d, err := f.svc.CreateDeal(context.Background(), &DealRequest{
		DealName:   "Summer Bundle",
		Products:   "Split AC, Pedestal Fan , ,Water Dispenser",
		TotalPrice: "250000",
		Discount:   "10",
		Images:     []upload.File{*image("a.jpg"), *image("b.jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Split AC", "Pedestal Fan", "Water Dispenser"}, []string(d.Products))
	assert.Equal(t, "225000", d.FinalPrice.String())
	assert.Equal(t, 1, d.MinOrder)
	assert.Len(t, d.Images, 2)

	total := decimal.NewFromInt(300000)
	d, err = f.svc.UpdateDeal(context.Background(), d.ID, &UpdateDealRequest{TotalPrice: &total})
	require.NoError(t, err)
	assert.Equal(t, "270000", d.FinalPrice.String())

	empty := []string{" "}
	_, err = f.svc.UpdateDeal(context.Background(), d.ID, &UpdateDealRequest{Products: &empty})
	assert.True(t, apperror.IsValidation(err))

	deals, err := f.svc.ListDeals(context.Background())
	require.NoError(t, err)
	assert.Len(t, deals, 1)

	require.NoError(t, f.svc.DeleteDeal(context.Background(), d.ID))
	assert.Empty(t, f.blobs.objects)
	assert.ErrorIs(t, f.svc.DeleteDeal(context.Background(), d.ID), ErrDealNotFound)
}
