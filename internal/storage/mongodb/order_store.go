package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

const ordersCollection = "orders"

type orderItemDoc struct {
	ProductID primitive.ObjectID   `bson:"productId"`
	Name      string               `bson:"name"`
	Image     string               `bson:"image"`
	Price     primitive.Decimal128 `bson:"price"`
	Qty       int                  `bson:"qty"`
}

type shippingAddressDoc struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
}

type paymentResultDoc struct {
	TransactionID string `bson:"transactionId"`
	Status        string `bson:"status"`
	UpdateTime    string `bson:"updateTime"`
	PayerEmail    string `bson:"payerEmail"`
}

type orderDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	UserID          primitive.ObjectID   `bson:"userId"`
	Items           []orderItemDoc       `bson:"orderItems"`
	ShippingAddress shippingAddressDoc   `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	ItemsPrice      primitive.Decimal128 `bson:"itemsPrice"`
	ShippingPrice   primitive.Decimal128 `bson:"shippingPrice"`
	TaxPrice        primitive.Decimal128 `bson:"taxPrice"`
	TotalPrice      primitive.Decimal128 `bson:"totalPrice"`
	IsPaid          bool                 `bson:"isPaid"`
	PaidAt          *time.Time           `bson:"paidAt,omitempty"`
	PaymentResult   *paymentResultDoc    `bson:"paymentResult,omitempty"`
	IsDelivered     bool                 `bson:"isDelivered"`
	DeliveredAt     *time.Time           `bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

// OrderStore is the MongoDB app.OrderStore. The at-most-once payment
// transition rests on MarkPaid's conditional filter plus the session
// transaction WithTransaction opens around the read-verify-write sequence.
type OrderStore struct {
	client *mongo.Client
	orders *mongo.Collection
}

var _ app.OrderStore = (*OrderStore)(nil)

func NewOrderStore(client *mongo.Client, db *mongo.Database) *OrderStore {
	return &OrderStore{
		client: client,
		orders: db.Collection(ordersCollection),
	}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	doc, err := orderToDoc(order)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return orderFromDoc(doc)
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	var doc orderDoc
	if err := s.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("order not found")
		}
		return nil, err
	}
	return orderFromDoc(&doc)
}

func (s *OrderStore) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	oid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.find(ctx, bson.M{"userId": oid})
}

func (s *OrderStore) FindAll(ctx context.Context) ([]domain.Order, error) {
	return s.find(ctx, bson.M{})
}

func (s *OrderStore) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	cur, err := s.orders.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		order, err := orderFromDoc(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, cur.Err()
}

func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	return s.orders.CountDocuments(ctx, bson.M{})
}

func (s *OrderStore) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalPrice"},
		}}},
	}

	cur, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer cur.Close(ctx)

	var row struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.Zero, nil
	}
	if err := cur.Decode(&row); err != nil {
		return decimal.Decimal{}, err
	}
	return fromDecimal128(row.Total)
}

func (s *OrderStore) TotalSalesByDay(ctx context.Context) ([]app.DailySales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isPaid": true}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$createdAt",
			}},
			"total": bson.M{"$sum": "$totalPrice"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []app.DailySales
	for cur.Next(ctx) {
		var row struct {
			Date  string               `bson:"_id"`
			Total primitive.Decimal128 `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		total, err := fromDecimal128(row.Total)
		if err != nil {
			return nil, err
		}
		out = append(out, app.DailySales{Date: row.Date, Total: total})
	}
	return out, cur.Err()
}

func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	oid, err := parseID(order.ID, "order")
	if err != nil {
		return err
	}
	doc, err := orderToDoc(order)
	if err != nil {
		return err
	}
	doc.ID = oid
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.orders.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

// MarkPaid transitions the order to paid with a single conditional update:
// the filter only matches while isPaid is false, so concurrent callers race
// on the document and exactly one update applies.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult, paidAt time.Time) (*domain.Order, error) {
	oid, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"isPaid": true,
		"paidAt": paidAt,
		"paymentResult": paymentResultDoc{
			TransactionID: result.TransactionID,
			Status:        result.Status,
			UpdateTime:    result.UpdateTime,
			PayerEmail:    result.PayerEmail,
		},
		"updatedAt": paidAt,
	}}

	var doc orderDoc
	err = s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "isPaid": false},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return orderFromDoc(&doc)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No unpaid document matched. Distinguish already-paid from missing.
	if err := s.orders.FindOne(ctx, bson.M{"_id": oid}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("order not found")
		}
		return nil, err
	}
	return nil, domain.ErrAlreadyPaid
}

func (s *OrderStore) Delete(ctx context.Context, orderID string) error {
	oid, err := parseID(orderID, "order")
	if err != nil {
		return err
	}
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

// WithTransaction runs fn inside a causally consistent session transaction.
// fn's context must be used for every store call made within it.
func (s *OrderStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func orderToDoc(order *domain.Order) (*orderDoc, error) {
	userID, err := parseID(order.UserID, "user")
	if err != nil {
		return nil, err
	}

	doc := &orderDoc{
		UserID: userID,
		ShippingAddress: shippingAddressDoc{
			Address:    order.ShippingAddress.Address,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		PaymentMethod: string(order.PaymentMethod),
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
		IsDelivered:   order.IsDelivered,
		DeliveredAt:   order.DeliveredAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}

	if doc.ItemsPrice, err = toDecimal128(order.Totals.ItemsPrice); err != nil {
		return nil, err
	}
	if doc.ShippingPrice, err = toDecimal128(order.Totals.ShippingPrice); err != nil {
		return nil, err
	}
	if doc.TaxPrice, err = toDecimal128(order.Totals.TaxPrice); err != nil {
		return nil, err
	}
	if doc.TotalPrice, err = toDecimal128(order.Totals.TotalPrice); err != nil {
		return nil, err
	}

	doc.Items = make([]orderItemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		productID, err := parseID(item.ProductID, "product")
		if err != nil {
			return nil, err
		}
		price, err := toDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: productID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     price,
			Qty:       item.Qty,
		})
	}

	if order.PaymentResult != nil {
		doc.PaymentResult = &paymentResultDoc{
			TransactionID: order.PaymentResult.TransactionID,
			Status:        order.PaymentResult.Status,
			UpdateTime:    order.PaymentResult.UpdateTime,
			PayerEmail:    order.PaymentResult.PayerEmail,
		}
	}
	return doc, nil
}

func orderFromDoc(doc *orderDoc) (*domain.Order, error) {
	order := &domain.Order{
		ID:     doc.ID.Hex(),
		UserID: doc.UserID.Hex(),
		ShippingAddress: domain.ShippingAddress{
			Address:    doc.ShippingAddress.Address,
			City:       doc.ShippingAddress.City,
			PostalCode: doc.ShippingAddress.PostalCode,
			Country:    doc.ShippingAddress.Country,
		},
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		IsPaid:        doc.IsPaid,
		PaidAt:        doc.PaidAt,
		IsDelivered:   doc.IsDelivered,
		DeliveredAt:   doc.DeliveredAt,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}

	var err error
	if order.Totals.ItemsPrice, err = fromDecimal128(doc.ItemsPrice); err != nil {
		return nil, err
	}
	if order.Totals.ShippingPrice, err = fromDecimal128(doc.ShippingPrice); err != nil {
		return nil, err
	}
	if order.Totals.TaxPrice, err = fromDecimal128(doc.TaxPrice); err != nil {
		return nil, err
	}
	if order.Totals.TotalPrice, err = fromDecimal128(doc.TotalPrice); err != nil {
		return nil, err
	}

	order.Items = make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID.Hex(),
			Name:      item.Name,
			Image:     item.Image,
			Price:     price,
			Qty:       item.Qty,
		})
	}

	if doc.PaymentResult != nil {
		order.PaymentResult = &domain.PaymentResult{
			TransactionID: doc.PaymentResult.TransactionID,
			Status:        doc.PaymentResult.Status,
			UpdateTime:    doc.PaymentResult.UpdateTime,
			PayerEmail:    doc.PaymentResult.PayerEmail,
		}
	}
	return order, nil
}
