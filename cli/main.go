package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#30d158"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0a84ff"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	menuView    table.Model
	orderList   list.Model
	orderDetail Order
	session     *Session
	transcript  []Message
	orderLines  []OrderLine
	orderTotal  float64
	sessionDone bool
	textInput   textinput.Model
	spinner     spinner.Model
	client      *ApiClient
	currentView string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Order Food", desc: "Chat with the KhanaBuddy assistant"},
		item{title: "Menu", desc: "Browse the menu and prices"},
		item{title: "Active Orders", desc: "View orders in the kitchen"},
		item{title: "Today's Summary", desc: "Order counts and revenue"},
		item{title: "Exit", desc: "Exit the application"},
	}

	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "KhanaBuddy CLI"

	columns := []table.Column{
		{Title: "Item", Width: 24},
		{Title: "Price", Width: 10},
		{Title: "Stock", Width: 8},
		{Title: "Status", Width: 16},
	}
	menuTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	orderList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	orderList.Title = "Active Orders"

	ti := textinput.New()
	ti.Placeholder = "What would you like to order?"
	ti.CharLimit = 156
	ti.Width = 50

	client := NewApiClient()

	return Model{
		mainMenu:    mainMenu,
		menuView:    menuTable,
		orderList:   orderList,
		spinner:     s,
		textInput:   ti,
		client:      client,
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView != "chat" {
				return m, tea.Quit
			}
		case "enter":
			switch m.currentView {
			case "main":
				selected, ok := m.mainMenu.SelectedItem().(item)
				if ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Order Food":
						m.currentView = "chat"
						m.error = ""
						m.textInput.Focus()
						if m.session == nil {
							return m, startSession(m.client)
						}
					case "Menu":
						m.currentView = "menu"
						return m, fetchMenu(m.client)
					case "Active Orders":
						m.currentView = "orders"
						return m, fetchOrders(m.client)
					case "Today's Summary":
						m.currentView = "summary"
						return m, fetchSummary(m.client)
					}
				}
			case "chat":
				text := strings.TrimSpace(m.textInput.Value())
				if text == "" || m.session == nil {
					return m, nil
				}
				m.textInput.SetValue("")
				if m.sessionDone {
					// After end of order the input is the customer name
					return m, checkout(m.client, m.session.SessionID, text)
				}
				return m, sendUtterance(m.client, m.session.SessionID, text)
			case "orders":
				if selected, ok := m.orderList.SelectedItem().(orderItem); ok {
					m.currentView = "order_detail"
					return m, fetchOrderDetails(m.client, selected.id)
				}
			case "order_detail":
				m.currentView = "orders"
				return m, fetchOrders(m.client)
			}
		case "esc":
			if m.currentView == "order_detail" {
				m.currentView = "orders"
				return m, fetchOrders(m.client)
			} else if m.currentView != "main" {
				m.currentView = "main"
			}
		}
	case sessionMsg:
		m.session = msg.session
		m.transcript = msg.session.Transcript
		m.orderLines = nil
		m.orderTotal = 0
		m.sessionDone = false
		return m, nil
	case replyMsg:
		m.transcript = append(m.transcript,
			Message{From: "user", Text: msg.sent},
			Message{From: "ai", Text: msg.reply.Reply},
		)
		m.orderLines = msg.reply.Items
		m.orderTotal = msg.reply.Total
		m.sessionDone = msg.reply.Closed
		if m.sessionDone {
			m.textInput.Placeholder = "Enter your name to place the order"
		}
		return m, nil
	case checkoutMsg:
		m.transcript = append(m.transcript,
			Message{From: "ai", Text: fmt.Sprintf("Order %s placed for %s!", msg.order.OrderNumber, msg.order.CustomerName)},
		)
		m.session = nil
		m.sessionDone = false
		m.textInput.Placeholder = "What would you like to order?"
		return m, nil
	case menuMsg:
		m.menuView.SetRows(convertMenuToRows(msg.items))
		return m, nil
	case ordersMsg:
		m.orderList.SetItems(convertOrdersToItems(msg.orders))
		return m, nil
	case orderDetailMsg:
		m.orderDetail = msg.order
		return m, nil
	case summaryMsg:
		m.error = summaryView(msg.summary)
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "menu":
		m.menuView, cmd = m.menuView.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "chat":
		m.textInput, cmd = m.textInput.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "chat":
		return docStyle.Render(chatView(m))
	case "menu":
		help := "\nPress 'esc' to go back\n"
		return docStyle.Render(titleStyle.Render("Menu") + "\n\n" + m.menuView.View() + help)
	case "orders":
		help := "\nPress 'enter' to view details, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Active Orders") + "\n\n" + m.orderList.View() + help)
	case "order_detail":
		return docStyle.Render(orderDetailView(m.orderDetail))
	case "summary":
		view := titleStyle.Render("Today's Summary") + "\n\n" + m.error
		view += "\nPress 'esc' to go back"
		return docStyle.Render(view)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type sessionMsg struct {
	session *Session
}

type replyMsg struct {
	sent  string
	reply *UtteranceResponse
}

type checkoutMsg struct {
	order *Order
}

type menuMsg struct {
	items []InventoryItem
}

type ordersMsg struct {
	orders []Order
}

type orderDetailMsg struct {
	order Order
}

type summaryMsg struct {
	summary *Summary
}

type errorMsg struct {
	err string
}

// orderItem represents an order in the list
type orderItem struct {
	id    uint
	title string
	desc  string
}

func (i orderItem) Title() string       { return i.title }
func (i orderItem) Description() string { return i.desc }
func (i orderItem) FilterValue() string { return i.title }

func startSession(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		session, err := client.CreateSession()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error starting session: %v", err)}
		}
		return sessionMsg{session: session}
	}
}

func sendUtterance(client *ApiClient, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.SendUtterance(sessionID, text)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error sending message: %v", err)}
		}
		return replyMsg{sent: text, reply: reply}
	}
}

func checkout(client *ApiClient, sessionID, customerName string) tea.Cmd {
	return func() tea.Msg {
		order, err := client.Checkout(sessionID, customerName, "")
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error placing order: %v", err)}
		}
		return checkoutMsg{order: order}
	}
}

func fetchMenu(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		items, err := client.GetMenu()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching menu: %v", err)}
		}
		return menuMsg{items: items}
	}
}

func fetchOrders(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetActiveOrders()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func fetchOrderDetails(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		order, err := client.GetOrder(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching order details: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

func fetchSummary(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		summary, err := client.GetSummary()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching summary: %v", err)}
		}
		return summaryMsg{summary: summary}
	}
}

// chatView renders the assistant conversation with the running order
func chatView(m Model) string {
	view := titleStyle.Render("Order with KhanaBuddy") + "\n\n"

	for _, msg := range m.transcript {
		if msg.From == "ai" {
			view += aiStyle.Render("KhanaBuddy: "+msg.Text) + "\n"
		} else {
			view += userStyle.Render("You: "+msg.Text) + "\n"
		}
	}

	if len(m.orderLines) > 0 {
		view += "\nYour order:\n"
		for _, line := range m.orderLines {
			view += fmt.Sprintf("  %dx %s - ₹%.0f\n", line.Quantity, line.Name, line.Price*float64(line.Quantity))
		}
		view += fmt.Sprintf("Total: ₹%.0f\n", m.orderTotal)
	}

	view += "\n" + m.textInput.View() + "\n"
	if m.error != "" {
		view += errorStyle.Render(m.error) + "\n"
	}
	view += "\nPress 'esc' to go back, ctrl+c to quit"
	return view
}

// convertMenuToRows converts inventory items to table rows
func convertMenuToRows(items []InventoryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, it := range items {
		status := "Available"
		if it.Quantity == 0 {
			status = "Not Available"
		} else if it.Quantity <= it.MinStock {
			status = "Need to Restock"
		}
		rows[i] = table.Row{
			it.ItemName,
			fmt.Sprintf("₹%.0f", it.Price),
			fmt.Sprintf("%d", it.Quantity),
			status,
		}
	}
	return rows
}

// convertOrdersToItems converts API orders to list items
func convertOrdersToItems(orders []Order) []list.Item {
	items := make([]list.Item, len(orders))
	for i, order := range orders {
		items[i] = orderItem{
			id:    order.ID,
			title: fmt.Sprintf("%s (%s)", order.OrderNumber, order.CustomerName),
			desc:  fmt.Sprintf("%d items - ₹%.0f - %s", len(order.Items), order.TotalAmount, order.Status),
		}
	}
	return items
}

// orderDetailView creates a detailed view of an order
func orderDetailView(order Order) string {
	view := titleStyle.Render(fmt.Sprintf("Order %s", order.OrderNumber)) + "\n\n"
	view += fmt.Sprintf("Customer: %s\n", order.CustomerName)
	if order.CustomerPhone != "" {
		view += fmt.Sprintf("Phone: %s\n", order.CustomerPhone)
	}
	view += fmt.Sprintf("Status: %s\n", order.Status)
	view += fmt.Sprintf("Placed: %s\n", order.OrderTime.Format(time.RFC1123))

	view += "\nItems:\n"
	for i, it := range order.Items {
		view += fmt.Sprintf("%d. %s (x%d) - ₹%.0f\n", i+1, it.ItemName, it.Quantity, it.TotalPrice)
	}
	view += fmt.Sprintf("\nTotal: ₹%.0f\n", order.TotalAmount)

	view += "\nPress 'enter' or 'esc' to go back to the list"
	return view
}

// summaryView formats today's summary
func summaryView(s *Summary) string {
	view := fmt.Sprintf("Total orders:\t%d\n", s.TotalOrders)
	view += fmt.Sprintf("Preparing:\t%d\n", s.PreparingOrders)
	view += fmt.Sprintf("Ready:\t\t%d\n", s.ReadyOrders)
	view += fmt.Sprintf("Delivered:\t%d\n", s.DeliveredOrders)
	view += fmt.Sprintf("Revenue:\t₹%.0f\n", s.TotalRevenue)
	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
