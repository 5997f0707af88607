package qualification

// DefaultConfig returns the built-in qualification configuration. The keyword
// tables and prompts are Brazilian Portuguese; classification and priority
// labels stay English.
//
// Max attainable score: 165 question points + 10 sentiment = 175.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		CompanyName: "Nossa Empresa",
		PersonalityPrompt: "Você é um assistente comercial simpático e objetivo. " +
			"Responda em português, de forma curta e natural, sempre conduzindo a " +
			"conversa para a próxima pergunta de qualificação. Nunca invente preços " +
			"ou condições.",
		TimeoutMinutes: 30,

		Questions: []QuestionSpec{
			{
				ID:        "nome",
				Type:      TypeName,
				Prompt:    "Pra começar, qual seu nome completo?",
				LeadField: "name",
				Required:  true,
				Validation: &ValidationRule{
					MinWords: 2,
					Regex:    `^[A-Za-zÀ-ÖØ-öø-ÿ'\s]+$`,
				},
				Scores: map[string]int{
					"completo":   20,
					"incompleto": 5,
				},
			},
			{
				ID:       "interesse",
				Type:     TypeInterest,
				Prompt:   "O que você está procurando? Me conta um pouco sobre o que precisa.",
				Required: true,
				Scores: map[string]int{
					"resposta_detalhada": 25,
					"resposta_basica":    10,
				},
				HighValueKeywords: []string{
					"premium", "completo", "profissional", "empresarial",
					"avançado", "sistema", "automação", "integração",
				},
				LowValueKeywords: []string{
					"grátis", "gratuito", "teste", "só olhando", "curiosidade",
				},
			},
			{
				ID:       "orcamento",
				Type:     TypeBudget,
				Prompt:   "Qual orçamento você tem em mente para isso?",
				Required: true,
				Scores: map[string]int{
					"premium":       30,
					"alto":          25,
					"medio":         15,
					"baixo":         5,
					"nao_informado": 0,
				},
				Ranges: map[string]RangeSpec{
					"premium": {Min: 10000, Keywords: []string{"premium", "sem limite", "o que precisar"}},
					"alto":    {Min: 5000, Keywords: []string{"investir bem", "valor alto"}},
					"medio":   {Min: 2000, Keywords: []string{"razoável", "razoavel", "intermediário"}},
					"baixo":   {Min: 0, Keywords: []string{"barato", "básico", "basico", "pouco", "apertado"}},
				},
			},
			{
				ID:       "prazo",
				Type:     TypeTimeframe,
				Prompt:   "Pra quando você precisa? Qual o prazo ideal?",
				Required: true,
				Scores: map[string]int{
					"imediato": 25,
					"curto":    18,
					"medio":    10,
					"longo":    5,
				},
				UrgencyKeywords: map[string][]string{
					"imediato": {"hoje", "agora", "imediato", "urgente", "já"},
					"curto":    {"semana", "essa semana", "próximos dias", "proximos dias", "breve"},
					"medio":    {"mês", "mes", "30 dias", "próximo mês", "proximo mes"},
					"longo":    {"futuro", "sem pressa", "mais pra frente", "ano que vem"},
				},
			},
			{
				ID:        "contato",
				Type:      TypeContact,
				Prompt:    "Como prefere continuar o contato: WhatsApp, telefone ou e-mail?",
				LeadField: "preferencia_contato",
				DependsOn: "interesse",
				Scores: map[string]int{
					"whatsapp": 15,
					"telefone": 15,
					"email":    10,
					"qualquer": 12,
				},
			},
			{
				ID:        "empresa",
				Type:      TypeCustomerType,
				Prompt:    "Esse interesse é pra você ou pra uma empresa?",
				LeadField: "tipo_cliente",
				Scores: map[string]int{
					"empresa": 20,
					"pessoal": 10,
				},
			},
			{
				ID:        "tamanho_empresa",
				Type:      TypeCompanySize,
				Prompt:    "Quantos funcionários a empresa tem, mais ou menos?",
				DependsOn: "empresa",
				Scores: map[string]int{
					"grande":  30,
					"media":   20,
					"pequena": 10,
				},
				Ranges: map[string]RangeSpec{
					"grande":  {Min: 50, Keywords: []string{"grande", "muita gente"}},
					"media":   {Min: 10, Keywords: []string{"média", "media"}},
					"pequena": {Min: 0, Keywords: []string{"pequena", "poucos", "só eu", "so eu"}},
				},
			},
		},

		Sentiment: SentimentConfig{
			Enabled: true,
			PositiveKeywords: []string{
				"ótimo", "otimo", "excelente", "perfeito", "adorei", "gostei",
				"maravilhoso", "legal", "interessante", "quero", "top",
			},
			NegativeKeywords: []string{
				"ruim", "caro", "péssimo", "pessimo", "horrível", "horrivel",
				"não gostei", "nao gostei", "difícil", "dificil", "demorado",
				"complicado",
			},
			ScoreAdjust: map[string]int{
				"very_positive": 10,
				"positive":      5,
				"neutral":       0,
				"negative":      -5,
				"very_negative": -10,
			},
		},

		Penalties: PenaltyConfig{
			EvasiveAnswers:        -10,
			NegativeKeywords:      -15,
			LongConversation:      -5,
			EvasiveMinCount:       3,
			EvasiveMaxLen:         3,
			LongConversationAfter: 15,
		},

		Thresholds: ThresholdConfig{
			Qualified:    40,
			HighPriority: 60,
			VIP:          80,
		},

		VIP: VIPConfig{
			BudgetKeywords:      []string{"10 mil", "20 mil", "50 mil", "100 mil", "premium"},
			UrgencyKeywords:     []string{"hoje", "agora", "imediato", "urgente", "já"},
			CompanySizeKeywords: []string{"50", "100", "mais de 50", "grande"},
			MinEmployees:        50,
		},

		Finalization: FinalizationConfig{
			MinMessages: 10,
			MinAnswers:  5,
		},

		Greetings: GreetingConfig{
			Default: "Olá! 👋 Bem-vindo à {empresa}! Vou te fazer algumas perguntas " +
				"rápidas pra te atender da melhor forma. Pra começar, qual seu nome completo?",
			Urgent: "Olá! Vi que você precisa de algo com urgência. Vou agilizar seu " +
				"atendimento! Pra começar, qual seu nome completo?",
			Problem: "Olá! Sinto muito pelo transtorno. Vou te ajudar a resolver isso " +
				"rapidinho. Pra começar, qual seu nome completo?",
			Product: "Olá! Que bom que você se interessou! Vou te passar todas as " +
				"informações. Pra começar, qual seu nome completo?",
			Price: "Olá! Já te passo os valores. Antes, me conta: qual seu nome completo?",
			UrgentSignals: []string{
				"urgente", "urgência", "urgencia", "emergência", "emergencia", "socorro", "pra hoje",
			},
			ProblemSignals: []string{
				"problema", "não funciona", "nao funciona", "erro", "quebrou", "parou", "defeito",
			},
			ProductSignals: []string{
				"produto", "sistema", "serviço", "servico", "plano", "solução", "solucao",
			},
			PriceSignals: []string{
				"preço", "preco", "valor", "quanto custa", "orçamento", "orcamento", "quanto fica",
			},
		},

		Templates: MessageTemplates{
			Escalation:    "Entendi! Vou te conectar com um de nossos atendentes agora mesmo. 👨‍💼",
			Timeout:       "Vou te conectar com um atendente para continuar. 👨‍💼",
			InternalError: "Obrigado! Um atendente responderá em breve.",
			GenericProbe:  "Me conta um pouco mais sobre o que você precisa?",
			Closing: map[string]string{
				"hot": "Perfeito, {nome}! 🔥 Já tenho tudo que preciso:\n{resumo}\n\n" +
					"Um especialista vai falar com você nos próximos minutos!",
				"warm": "Obrigado, {nome}! 😊 Anotei tudo aqui:\n{resumo}\n\n" +
					"Em breve um de nossos atendentes entra em contato.",
				"cold": "Obrigado pelas informações, {nome}!\n{resumo}\n\n" +
					"Vamos analisar e retornamos em breve.",
			},
		},

		Reengagement: ReengagementConfig{
			Enabled:    true,
			DelayHours: 24,
			Template: "Oi {nome}! Passando pra saber se você ainda tem interesse. " +
				"Estamos com condições especiais essa semana. 😊",
		},

		EscalationKeywords: []string{
			"atendente", "humano", "pessoa real", "falar com alguém",
			"falar com alguem", "gerente", "pessoa de verdade",
		},

		NegativeKeywords: []string{
			"caro demais", "muito caro", "não tenho interesse", "nao tenho interesse",
			"desisto", "cancelar", "não quero", "nao quero", "pare de me mandar",
		},
	}
}
