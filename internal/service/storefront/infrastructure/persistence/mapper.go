package persistence

import "storefront/internal/service/storefront/domain"

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}
	return &domain.Product{
		ID:         m.ID,
		Name:       m.Name,
		Price:      m.Price,
		Stock:      m.Stock,
		ImageURL:   m.ImageURL,
		Active:     m.Active,
		CategoryID: m.CategoryID,
	}
}

// FromDomainProduct 将领域模型转换为数据库模型
func FromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		ImageURL:   p.ImageURL,
		Active:     p.Active,
		CategoryID: p.CategoryID,
	}
}

func toDomainCart(m *CartModel) *domain.Cart {
	cart := &domain.Cart{ID: m.ID, ClientID: m.ClientID, Items: make([]domain.CartItem, 0, len(m.Items))}
	for _, it := range m.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        it.ID,
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return cart
}

func toDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:             m.ID,
		Date:           m.Date,
		Total:          m.Total,
		DeliveryMethod: domain.DeliveryMethod(m.DeliveryMethod),
		Status:         domain.Status(m.Status),
		ClientID:       m.ClientID,
		BillID:         m.BillID,
	}
	for i := range m.Details {
		o.Details = append(o.Details, *toDomainOrderDetail(&m.Details[i]))
	}
	return o
}

func fromDomainOrder(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:             o.ID,
		Date:           o.Date,
		Total:          o.Total,
		DeliveryMethod: int(o.DeliveryMethod),
		Status:         int(o.Status),
		ClientID:       o.ClientID,
		BillID:         o.BillID,
	}
}

func toDomainOrderDetail(m *OrderDetailModel) *domain.OrderDetail {
	return &domain.OrderDetail{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Price:     m.Price,
	}
}

func fromDomainOrderDetail(d *domain.OrderDetail) *OrderDetailModel {
	return &OrderDetailModel{
		ID:        d.ID,
		OrderID:   d.OrderID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     d.Price,
	}
}

func toDomainClient(m *ClientModel) *domain.Client {
	return &domain.Client{
		ID:           m.ID,
		Name:         m.Name,
		Lastname:     m.Lastname,
		Email:        m.Email,
		Telephone:    m.Telephone,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
	}
}

func fromDomainClient(c *domain.Client) *ClientModel {
	return &ClientModel{
		ID:           c.ID,
		Name:         c.Name,
		Lastname:     c.Lastname,
		Email:        c.Email,
		Telephone:    c.Telephone,
		PasswordHash: c.PasswordHash,
		IsAdmin:      c.IsAdmin,
	}
}

func toDomainBill(m *BillModel) *domain.Bill {
	return &domain.Bill{
		ID:          m.ID,
		BillNumber:  m.BillNumber,
		Discount:    m.Discount,
		Date:        m.Date,
		Total:       m.Total,
		PaymentType: m.PaymentType,
		ClientID:    m.ClientID,
	}
}

func fromDomainBill(b *domain.Bill) *BillModel {
	return &BillModel{
		ID:          b.ID,
		BillNumber:  b.BillNumber,
		Discount:    b.Discount,
		Date:        b.Date,
		Total:       b.Total,
		PaymentType: b.PaymentType,
		ClientID:    b.ClientID,
	}
}

func toDomainCategory(m *CategoryModel) *domain.Category {
	return &domain.Category{ID: m.ID, Name: m.Name}
}

func fromDomainCategory(c *domain.Category) *CategoryModel {
	return &CategoryModel{ID: c.ID, Name: c.Name}
}

func toDomainReview(m *ReviewModel) *domain.Review {
	return &domain.Review{ID: m.ID, Rating: m.Rating, Comment: m.Comment, ProductID: m.ProductID}
}

func fromDomainReview(r *domain.Review) *ReviewModel {
	return &ReviewModel{ID: r.ID, Rating: r.Rating, Comment: r.Comment, ProductID: r.ProductID}
}

func toDomainAddress(m *AddressModel) *domain.Address {
	return &domain.Address{ID: m.ID, Street: m.Street, Number: m.Number, City: m.City, ClientID: m.ClientID}
}

func fromDomainAddress(a *domain.Address) *AddressModel {
	return &AddressModel{ID: a.ID, Street: a.Street, Number: a.Number, City: a.City, ClientID: a.ClientID}
}
