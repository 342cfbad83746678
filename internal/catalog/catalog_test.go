package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/catalog"
	"github.com/MrJamesThe3rd/tally/internal/encoding"
	"github.com/MrJamesThe3rd/tally/internal/remote"
	"github.com/MrJamesThe3rd/tally/internal/remote/memory"
)

func TestPrice_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "String", raw: `"2.49"`, want: "2.49"},
		{name: "Number", raw: `3.5`, want: "3.5"},
		{name: "PaddedString", raw: `" 4 "`, want: "4"},
		{name: "Garbage", raw: `"free"`, want: "0"},
		{name: "Null", raw: `null`, want: "0"},
		{name: "Empty", raw: `""`, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p catalog.Product
			require.NoError(t, json.Unmarshal([]byte(`{"Name":"x","Price":`+tt.raw+`}`), &p))

			assert.Equal(t, tt.want, p.Price.String())
		})
	}
}

func seed(t *testing.T, store remote.Store) {
	t.Helper()

	ctx := context.Background()

	for _, doc := range []struct {
		coll  string
		value any
	}{
		{catalog.CategoryCollection, map[string]any{"Name": "Fruit", "Image": "fruit.png"}},
		{catalog.CategoryCollection, map[string]any{"Name": "Bakery", "Image": "bakery.png"}},
		{catalog.FeaturedCollection, map[string]any{"Image": "banner-1.png"}},
		{catalog.ProductCollection, map[string]any{"Name": "Apple", "Description": "Red", "Price": "0.40", "Category": "Fruit"}},
		{catalog.ProductCollection, map[string]any{"Name": "Loaf", "Description": "Sourdough", "Price": 3.2, "Category": "Bakery"}},
		{catalog.ProductCollection, map[string]any{"Name": "Pear", "Description": "Green", "Price": "n/a", "Category": "Fruit"}},
	} {
		_, err := store.Push(ctx, doc.coll, doc.value)
		require.NoError(t, err)
	}
}

func TestService_Reads(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(t, store)

	svc := catalog.NewService(store, nil)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Fruit", categories[0].Name)
	assert.NotEmpty(t, categories[0].ID)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "banner-1.png", featured[0].Image)

	fruit, err := svc.Products(ctx, "Fruit")
	require.NoError(t, err)
	require.Len(t, fruit, 2)
	assert.Equal(t, "Apple", fruit[0].Name)
	assert.Equal(t, "0.4", fruit[0].Price.String())
	assert.True(t, fruit[1].Price.IsZero())

	all, err := svc.Products(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	loaf, err := svc.Product(ctx, all[1].ID)
	require.NoError(t, err)

	item := loaf.CartProduct()
	assert.Equal(t, all[1].ID, item.ID)
	assert.Equal(t, "Loaf", item.Name)
	assert.Equal(t, "Sourdough", item.Description)
	assert.Equal(t, "3.2", item.Price.String())

	_, err = svc.Product(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestService_QueryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	store.EXPECT().
		Query(gomock.Any(), catalog.ProductCollection, &remote.Filter{Field: "Category", Value: "Dairy"}).
		Return(nil, errors.New("unavailable"))

	_, err := catalog.NewService(store, nil).Products(context.Background(), "Dairy")
	assert.ErrorContains(t, err, "querying Product")
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.Push(ctx, catalog.CategoryCollection, catalog.Category{Name: "Fruit"})
	require.NoError(t, err)

	input := strings.Join([]string{
		"Name,Description,Price,Image,Category",
		"Apple,Crisp and red,0.40,apple.png,Fruit",
		"Croissant,Buttery,\"1,80\",croissant.png,Bakery",
		",skipped row without a name,1,,Bakery",
		"Baguette,Long,2.10,,Bakery",
	}, "\n")

	res, err := catalog.NewImporter(store, nil).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Products)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, encoding.UTF8, res.Charset)

	svc := catalog.NewService(store, nil)

	bakery, err := svc.Products(ctx, "Bakery")
	require.NoError(t, err)
	require.Len(t, bakery, 2)
	assert.Equal(t, "Croissant", bakery[0].Name)
	assert.Equal(t, "1.8", bakery[0].Price.String())

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Bakery", categories[1].Name)
	assert.Empty(t, categories[1].Image, "product images are not category images")
}

func TestImporter_CategoryImageColumn(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	input := strings.Join([]string{
		"Name,Price,Image,Category,Category Image",
		"Croissant,1.80,croissant.png,Bakery,",
		"Baguette,2.10,baguette.png,Bakery,bakery.png",
		"Rye,3.00,rye.png,Bakery,other.png",
		"Milk,0.90,milk.png,Dairy,",
	}, "\n")

	res, err := catalog.NewImporter(store, nil).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Categories)

	categories, err := catalog.NewService(store, nil).Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	images := map[string]string{}
	for _, c := range categories {
		images[c.Name] = c.Image
	}

	assert.Equal(t, map[string]string{"Bakery": "bakery.png", "Dairy": ""}, images)
}

func TestImporter_Windows1252Semicolons(t *testing.T) {
	// "Name;Price;Category\nCrème fraîche;2,25;Dairy\n" in Windows-1252.
	var input bytes.Buffer
	input.WriteString("Name;Price;Category\nCr")
	input.WriteByte(0xE8)
	input.WriteString("me fra")
	input.WriteByte(0xEE)
	input.WriteString("che;2,25;Dairy\n")

	products, _, err := catalog.NewImporter(memory.New(), nil).Parse(&input)
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, "Crème fraîche", products[0].Name)
	assert.Equal(t, "2.25", products[0].Price.String())
	assert.Equal(t, "Dairy", products[0].Category)
}

func TestImporter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{name: "Empty", input: "", wantErr: catalog.ErrMissingColumns},
		{name: "NoPriceColumn", input: "Name,Category\nApple,Fruit\n", wantErr: catalog.ErrMissingColumns},
		{name: "BadPrice", input: "Name,Price,Category\nApple,cheap,Fruit\n", wantMsg: "line 2"},
		{name: "NegativePrice", input: "Name,Price,Category\nApple,1,Fruit\nPear,-2,Fruit\n", wantMsg: "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := catalog.NewImporter(memory.New(), nil).Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}
