package domain

// Direction es el sentido de una predicción.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid devuelve true si la dirección es "up" o "down".
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Signal es la salida de una estrategia en un instante de evaluación.
// Una estrategia sin opinión devuelve nil, no un Signal vacío.
type Signal struct {
	Direction  Direction
	Threshold  float64 // precio que debe alcanzarse (up) o no superarse (down)
	Confidence float64 // [0, 1]
	Strategy   string
}

// EvaluationContext es la vista que recibe la estrategia en cada paso.
// Todo su contenido está truncado al instante de evaluación: nunca contiene
// puntos posteriores. Se construye de nuevo en cada paso y no se comparte.
type EvaluationContext struct {
	Pair         string
	CurrentPrice float64
	PriceHistory []PricePoint // newest-first
	HorizonHours float64

	// AllPrices contiene el historial de los otros pares (newest-first),
	// solo los que tienen al menos 5 puntos hasta el instante de evaluación.
	AllPrices map[string][]PricePoint
}
