package catalog

import fc "github.com/meikuraledutech/flowchart"

var num = fc.Float

func temp(min, max, target *float64) *fc.TemperatureRange {
	return &fc.TemperatureRange{Min: min, Max: max, Target: target, Unit: "C"}
}

var categories = []Category{
	{
		Name: "Flow",
		Entries: []Entry{
			{Type: fc.NodeStart, Label: "Start", Description: "Beginning of the process"},
			{Type: fc.NodeEnd, Label: "End", Description: "End of the process"},
			{Type: fc.NodeDecision, Label: "Decision", Description: "Accept / reject or rework branch"},
			{Type: fc.NodeCustom, Label: "Custom Step", Description: "Free-form process step"},
		},
	},
	{
		Name: "Receiving",
		Entries: []Entry{
			{
				Type:        fc.NodeRawMaterialReceiving,
				Label:       "Raw Material Receiving",
				Description: "Intake and acceptance of raw materials",
				Default: fc.DomainData{
					Description: "Check supplier documents, temperature and sensory quality on arrival",
					Temperature: temp(nil, num(6), nil),
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardChemical,
							Description:     "Antibiotic or veterinary drug residues in raw milk",
							Likelihood:      2,
							Severity:        3,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Supplier approval, rapid residue test per tanker",
							RiskStrategy:    fc.StrategyOPRP,
						},
						{
							Type:            fc.HazardBiological,
							Description:     "Pathogen load above acceptance limit",
							Likelihood:      3,
							Severity:        3,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Reject loads above 6 °C, downstream pasteurization",
							RiskStrategy:    fc.StrategyExistingPRPs,
						},
					},
				},
			},
			{
				Type:        fc.NodeIngredientReceiving,
				Label:       "Ingredient Receiving",
				Description: "Intake of minor ingredients",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardAllergen,
							Description:     "Undeclared allergen in supplied ingredient",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Supplier specification and allergen declaration review",
							RiskStrategy:    fc.StrategyExistingPRPs,
						},
					},
				},
			},
			{
				Type:        fc.NodePackagingReceiving,
				Label:       "Packaging Receiving",
				Description: "Intake of food-contact packaging",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardChemical,
							Description:     "Migration from non-compliant packaging material",
							Likelihood:      1,
							Severity:        3,
							RiskLevel:       fc.RiskLow,
							ControlMeasures: "Declaration of compliance per lot",
							RiskStrategy:    fc.StrategyExistingPRPs,
						},
					},
				},
			},
		},
	},
	{
		Name: "Storage",
		Entries: []Entry{
			{
				Type:        fc.NodeColdStorage,
				Label:       "Cold Storage",
				Description: "Chilled storage",
				Default: fc.DomainData{
					Description: "Chilled storage of product",
					Temperature: temp(num(2), num(6), num(4)),
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardBiological,
							Description:     "Growth of pathogens due to temperature abuse",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskHigh,
							ControlMeasures: "Temperature-controlled storage with continuous monitoring",
							IsCCP:           true,
							RiskStrategy:    fc.StrategyCCP,
						},
					},
					CCP: &fc.CCP{
						Number: "CCP-1",
						CriticalLimits: []fc.CriticalLimit{
							{Parameter: "Temperature", Max: num(6), Unit: "°C"},
						},
						MonitoringFrequency: "Continuous, reviewed every 4 hours",
						MonitoringMethod:    "Calibrated temperature data logger",
						ResponsiblePerson:   "Warehouse supervisor",
						CorrectiveActions:   "Move product to backup chiller, assess product held above 6 °C, record deviation",
						VerificationMethod:  "Weekly logger record review and quarterly probe calibration",
					},
				},
			},
			{
				Type:        fc.NodeFrozenStorage,
				Label:       "Frozen Storage",
				Description: "Frozen storage",
				Default: fc.DomainData{
					Temperature: temp(nil, num(-18), num(-20)),
				},
			},
			{
				Type:        fc.NodeDryStorage,
				Label:       "Dry Storage",
				Description: "Ambient storage of dry goods",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardPhysical,
							Description:     "Pest contamination",
							Likelihood:      2,
							Severity:        2,
							RiskLevel:       fc.RiskLow,
							ControlMeasures: "Pest control programme",
							RiskStrategy:    fc.StrategyExistingPRPs,
						},
					},
				},
			},
			{
				Type:        fc.NodeThawing,
				Label:       "Thawing",
				Description: "Controlled thawing",
				Default: fc.DomainData{
					Temperature: temp(nil, num(5), nil),
					Time:        &fc.TimeSpec{Duration: 24, Unit: "h"},
				},
			},
		},
	},
	{
		Name: "Preparation",
		Entries: []Entry{
			{Type: fc.NodeWashing, Label: "Washing", Description: "Washing of raw produce"},
			{
				Type:        fc.NodeCutting,
				Label:       "Cutting",
				Description: "Cutting or portioning",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardPhysical,
							Description:     "Blade fragments",
							Likelihood:      1,
							Severity:        4,
							RiskLevel:       fc.RiskLow,
							ControlMeasures: "Blade integrity check at start and end of shift",
							RiskStrategy:    fc.StrategyOPRP,
						},
					},
				},
			},
			{Type: fc.NodeMixing, Label: "Mixing", Description: "Mixing of ingredients"},
			{Type: fc.NodeStandardization, Label: "Standardization", Description: "Fat and solids standardization"},
			{
				Type:        fc.NodeHomogenization,
				Label:       "Homogenization",
				Description: "High-pressure homogenization",
				Default: fc.DomainData{
					Temperature: temp(num(55), num(70), num(65)),
				},
			},
			{
				Type:        fc.NodeFermentation,
				Label:       "Fermentation",
				Description: "Culture fermentation",
				Default: fc.DomainData{
					Temperature: temp(num(40), num(45), num(42)),
					Time:        &fc.TimeSpec{Duration: 6, Unit: "h"},
					PH:          &fc.Range{Max: num(4.6), Target: num(4.5)},
				},
			},
			{Type: fc.NodeFiltration, Label: "Filtration", Description: "Filtration or straining"},
		},
	},
	{
		Name: "Thermal Processing",
		Entries: []Entry{
			{
				Type:        fc.NodePasteurization,
				Label:       "Pasteurization",
				Description: "HTST pasteurization",
				Default: fc.DomainData{
					Description: "High temperature short time pasteurization",
					Equipment:   "Plate heat exchanger",
					Temperature: temp(num(72), num(75), num(72)),
					Time:        &fc.TimeSpec{Duration: 15, Unit: "s"},
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardBiological,
							Description:     "Survival of vegetative pathogens (Listeria, Salmonella)",
							Likelihood:      2,
							Severity:        5,
							RiskLevel:       fc.RiskCritical,
							ControlMeasures: "Time and temperature control with flow diversion valve",
							IsCCP:           true,
							RiskStrategy:    fc.StrategyCCP,
						},
					},
					CCP: &fc.CCP{
						Number: "CCP-2",
						CriticalLimits: []fc.CriticalLimit{
							{Parameter: "Temperature", Min: num(72), Unit: "°C"},
							{Parameter: "Holding time", Min: num(15), Unit: "s"},
						},
						MonitoringFrequency: "Continuous",
						MonitoringMethod:    "Recording thermometer and flow diversion valve",
						ResponsiblePerson:   "Pasteurizer operator",
						CorrectiveActions:   "Divert flow, re-pasteurize affected product, investigate cause",
						VerificationMethod:  "Daily chart review, alkaline phosphatase test per batch",
					},
				},
			},
			{
				Type:        fc.NodeSterilization,
				Label:       "Sterilization",
				Description: "Retort or UHT sterilization",
				Default: fc.DomainData{
					Temperature: temp(num(135), nil, num(138)),
					Time:        &fc.TimeSpec{Duration: 4, Unit: "s"},
				},
			},
			{
				Type:        fc.NodeCooking,
				Label:       "Cooking",
				Description: "Cooking to a safe core temperature",
				Default: fc.DomainData{
					Temperature: temp(num(75), nil, num(80)),
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardBiological,
							Description:     "Survival of pathogens through undercooking",
							Likelihood:      3,
							Severity:        5,
							RiskLevel:       fc.RiskHigh,
							ControlMeasures: "Core temperature check per batch",
							IsCCP:           true,
							RiskStrategy:    fc.StrategyCCP,
						},
					},
					CCP: &fc.CCP{
						Number: "CCP-3",
						CriticalLimits: []fc.CriticalLimit{
							{Parameter: "Core temperature", Min: num(75), Unit: "°C"},
						},
						MonitoringFrequency: "Every batch",
						MonitoringMethod:    "Calibrated probe thermometer",
						CorrectiveActions:   "Continue cooking until limit reached, hold and assess batch",
						VerificationMethod:  "Daily record review, monthly probe calibration",
					},
				},
			},
			{
				Type:        fc.NodeCooling,
				Label:       "Cooling",
				Description: "Rapid cooling",
				Default: fc.DomainData{
					Temperature: temp(nil, num(6), num(4)),
					Time:        &fc.TimeSpec{Duration: 90, Unit: "min"},
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardBiological,
							Description:     "Spore germination during slow cooling",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Blast chiller cycle validation",
							RiskStrategy:    fc.StrategyOPRP,
						},
					},
				},
			},
			{
				Type:        fc.NodeFreezing,
				Label:       "Freezing",
				Description: "Blast freezing",
				Default: fc.DomainData{
					Temperature: temp(nil, num(-18), num(-25)),
				},
			},
		},
	},
	{
		Name: "Packaging",
		Entries: []Entry{
			{
				Type:        fc.NodeFilling,
				Label:       "Filling",
				Description: "Filling into containers",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardBiological,
							Description:     "Post-process recontamination from filler",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "CIP of filler, hygienic zoning",
							RiskStrategy:    fc.StrategyOPRP,
						},
					},
				},
			},
			{Type: fc.NodeSealing, Label: "Sealing", Description: "Container sealing"},
			{Type: fc.NodePackaging, Label: "Packaging", Description: "Secondary packaging"},
			{
				Type:        fc.NodeLabeling,
				Label:       "Labeling",
				Description: "Product labeling",
				Default: fc.DomainData{
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardAllergen,
							Description:     "Wrong label with missing allergen declaration",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Label verification at changeover",
							RiskStrategy:    fc.StrategyOPRP,
						},
					},
				},
			},
		},
	},
	{
		Name: "Control",
		Entries: []Entry{
			{
				Type:        fc.NodeMetalDetection,
				Label:       "Metal Detection",
				Description: "In-line metal detection",
				Default: fc.DomainData{
					Equipment: "Metal detector with reject arm",
					Hazards: []fc.Hazard{
						{
							Type:            fc.HazardPhysical,
							Description:     "Metal fragments from equipment wear",
							Likelihood:      2,
							Severity:        4,
							RiskLevel:       fc.RiskMedium,
							ControlMeasures: "Metal detection with automatic reject",
							IsCCP:           true,
							RiskStrategy:    fc.StrategyCCP,
						},
					},
					CCP: &fc.CCP{
						Number: "CCP-4",
						CriticalLimits: []fc.CriticalLimit{
							{Parameter: "Fe test piece", Max: num(2.0), Unit: "mm"},
							{Parameter: "Non-Fe test piece", Max: num(2.5), Unit: "mm"},
							{Parameter: "Stainless steel test piece", Max: num(3.0), Unit: "mm"},
						},
						MonitoringFrequency: "Start of shift and every hour",
						MonitoringMethod:    "Test pieces passed through detector",
						CorrectiveActions:   "Hold product since last good check, re-screen, repair detector",
						VerificationMethod:  "Daily record review, annual detector service",
					},
				},
			},
			{Type: fc.NodeInspection, Label: "Inspection", Description: "Visual or sensory inspection"},
			{
				Type:        fc.NodeDispatch,
				Label:       "Dispatch",
				Description: "Loading and dispatch",
				Default: fc.DomainData{
					Temperature: temp(nil, num(6), nil),
				},
			},
		},
	},
}
