package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/cart"
	"github.com/MrJamesThe3rd/tally/internal/catalog"
)

type shopState int

const (
	shopStateCategories shopState = iota
	shopStateProducts
)

const allProducts = "All products"

type categoryItem struct {
	name string
}

func (i categoryItem) Title() string       { return i.name }
func (i categoryItem) Description() string { return "" }
func (i categoryItem) FilterValue() string { return i.name }

type productItem struct {
	p catalog.Product
}

func (i productItem) Title() string {
	return fmt.Sprintf("%s  %s", i.p.Name, activeStyle(i.p.Price.StringFixed(2)))
}

func (i productItem) Description() string { return i.p.Description }
func (i productItem) FilterValue() string { return i.p.Name }

// ShopModel browses the catalog and adds products to the session cart.
type ShopModel struct {
	catalogService *catalog.Service
	ledger         *cart.Ledger

	state      shopState
	categories list.Model
	products   list.Model
	category   string

	loading bool
	status  string
}

func NewShopModel(svc *catalog.Service, ledger *cart.Ledger) ShopModel {
	categories := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	categories.Title = "Categories"
	categories.SetShowStatusBar(false)
	categories.SetShowHelp(false)

	products := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	products.SetShowStatusBar(true)
	products.SetFilteringEnabled(true)
	products.SetShowHelp(false)

	return ShopModel{
		catalogService: svc,
		ledger:         ledger,
		categories:     categories,
		products:       products,
		loading:        true,
	}
}

func (m ShopModel) Title() string { return "Shop" }

func (m ShopModel) ShortHelp() string {
	if m.state == shopStateProducts {
		return "Esc: categories | Enter: add to cart | /: filter"
	}

	return "Esc: back | Enter: browse"
}

func (m ShopModel) Init() tea.Cmd {
	return m.loadCategoriesCmd()
}

func (m ShopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadCategoriesMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		items := make([]list.Item, 0, len(msg.categories)+1)
		items = append(items, categoryItem{name: allProducts})

		for _, c := range msg.categories {
			items = append(items, categoryItem{name: c.Name})
		}

		return m, m.categories.SetItems(items)

	case loadProductsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		items := make([]list.Item, len(msg.products))
		for i, p := range msg.products {
			items[i] = productItem{p: p}
		}

		if len(items) == 0 {
			m.status = "No products in this category."
		}

		return m, m.products.SetItems(items)

	case tea.WindowSizeMsg:
		m.categories.SetSize(msg.Width-4, msg.Height-8)
		m.products.SetSize(msg.Width-4, msg.Height-8)

		return m, nil
	}

	switch m.state {
	case shopStateCategories:
		return m.updateCategories(msg)
	case shopStateProducts:
		return m.updateProducts(msg)
	}

	return m, nil
}

func (m ShopModel) updateCategories(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			selected, ok := m.categories.SelectedItem().(categoryItem)
			if !ok {
				return m, nil
			}

			m.category = selected.name
			if m.category == allProducts {
				m.category = ""
			}

			m.products.Title = selected.name
			m.state = shopStateProducts
			m.loading = true
			m.status = ""

			return m, m.loadProductsCmd()
		}
	}

	var cmd tea.Cmd
	m.categories, cmd = m.categories.Update(msg)

	return m, cmd
}

func (m ShopModel) updateProducts(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			if m.products.FilterState() == list.Filtering {
				break
			}

			m.state = shopStateCategories
			m.status = ""

			return m, nil
		case tea.KeyEnter:
			if m.products.FilterState() == list.Filtering {
				break
			}

			selected, ok := m.products.SelectedItem().(productItem)
			if !ok {
				return m, nil
			}

			m.ledger.Add(selected.p.CartProduct())
			m.status = fmt.Sprintf("Added %s (%d in cart).", selected.p.Name, m.ledger.Quantity(selected.p.ID))

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.products, cmd = m.products.Update(msg)

	return m, cmd
}

func (m ShopModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading catalog...")
	}

	statusLine := ""
	if m.status != "" {
		statusLine = faint(m.status) + "\n"
	}

	body := m.categories.View()
	if m.state == shopStateProducts {
		body = m.products.View()
	}

	footer := faint(fmt.Sprintf("Cart: %d products, %s", m.ledger.Len(), FormatAmount(m.ledger.Total())))

	return lipgloss.NewStyle().Padding(1).Render(statusLine + body + "\n" + footer)
}

// Messages

type loadCategoriesMsg struct {
	categories []catalog.Category
	err        error
}

func (m ShopModel) loadCategoriesCmd() tea.Cmd {
	svc := m.catalogService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		categories, err := svc.Categories(ctx)

		return loadCategoriesMsg{categories: categories, err: err}
	}
}

type loadProductsMsg struct {
	products []catalog.Product
	err      error
}

func (m ShopModel) loadProductsCmd() tea.Cmd {
	svc := m.catalogService
	category := m.category

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		products, err := svc.Products(ctx, category)

		return loadProductsMsg{products: products, err: err}
	}
}
